package main

import (
	"net/http"
	"ticketcore/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func validationHandlers(g *gin.RouterGroup, app *application) *gin.RouterGroup {
	g.
		POST("/ticket-validations", func(ctx *gin.Context) {
			var body types.TicketValidationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				badRequest(ctx, err)
				return
			}
			validation, err := app.validations.Validate(ctx.Request.Context(), body.Method, body.ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": validation})
		}).
		GET("/ticket-validations", func(ctx *gin.Context) {
			var query types.TicketValidationsQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				badRequest(ctx, err)
				return
			}
			ticketID, err := uuid.Parse(query.TicketID)
			if err != nil {
				abortWithError(ctx, types.ErrTicketNotFound)
				return
			}
			history, err := app.validations.History(ctx.Request.Context(), ticketID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": history, "count": len(history)})
		})
	return g
}
