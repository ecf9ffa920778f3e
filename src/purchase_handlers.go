package main

import (
	"net/http"
	"ticketcore/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func purchaseHandlers(g *gin.RouterGroup, app *application) *gin.RouterGroup {
	g.
		POST("/ticket-types/:id/tickets", func(ctx *gin.Context) {
			ticketTypeID, ok := bindID(ctx, types.ErrTicketTypeNotFound)
			if !ok {
				return
			}
			ticket, err := app.inventory.Purchase(ctx.Request.Context(), currentUser(ctx), ticketTypeID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": ticket})
		}).
		GET("/ticket-types/:id/availability", func(ctx *gin.Context) {
			ticketTypeID, ok := bindID(ctx, types.ErrTicketTypeNotFound)
			if !ok {
				return
			}
			a, err := app.inventory.Availability(ctx.Request.Context(), ticketTypeID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"id":        a.TicketTypeID,
				"total":     a.TotalAvailable,
				"issued":    a.Issued,
				"remaining": a.Remaining(),
			})
		})
	return g
}

// bindID reads the :id path param. A malformed id is reported as notFound.
func bindID(ctx *gin.Context, notFound error) (uuid.UUID, bool) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		badRequest(ctx, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(params.ID)
	if err != nil {
		abortWithError(ctx, notFound)
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(ctx *gin.Context) uuid.UUID {
	if v, ok := ctx.Get("id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
