package main

import (
	"net/http"
	"ticketcore/src/lib"
	"ticketcore/src/types"

	"github.com/gin-gonic/gin"
)

func ticketHandlers(g *gin.RouterGroup, app *application) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			tickets, err := app.tickets.ListForUser(ctx.Request.Context(), currentUser(ctx))
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets, "count": len(tickets)})
		}).
		GET("/tickets/:id", func(ctx *gin.Context) {
			ticketID, ok := bindID(ctx, types.ErrTicketNotFound)
			if !ok {
				return
			}
			ticket, err := app.tickets.GetForUser(ctx.Request.Context(), currentUser(ctx), ticketID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		GET("/tickets/:id/qr-codes", func(ctx *gin.Context) {
			ticketID, ok := bindID(ctx, types.ErrTicketNotFound)
			if !ok {
				return
			}
			img, err := app.tickets.QrCodeImage(ctx.Request.Context(), currentUser(ctx), ticketID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.Header("Content-Disposition", `inline; filename="eticket.jpeg"`)
			ctx.Data(http.StatusOK, lib.QR_CONTENT_TYPE, img)
		})
	return g
}
