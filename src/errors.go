package main

import (
	"errors"
	"log"
	"net/http"
	"ticketcore/src/types"

	"github.com/gin-gonic/gin"
)

const retryAfterSeconds = "1"

// abortWithError renders a core error as {"error", "kind"}. Not-found is kept
// generic so a malformed id looks the same as an absent one.
func abortWithError(ctx *gin.Context, err error) {
	kind := types.KindOf(err)
	status := http.StatusInternalServerError
	msg := "An unknown error occurred"

	switch kind {
	case types.KIND_NOT_FOUND:
		status, msg = http.StatusNotFound, "not found"
	case types.KIND_CAPACITY_EXHAUSTED, types.KIND_INVALID_STATE_TRANSITION:
		status, msg = http.StatusConflict, messageOf(err)
	case types.KIND_TIMEOUT:
		status, msg = http.StatusServiceUnavailable, messageOf(err)
		ctx.Header("Retry-After", retryAfterSeconds)
	case types.KIND_STORAGE:
		status, msg = http.StatusServiceUnavailable, "temporarily unavailable"
		ctx.Header("Retry-After", retryAfterSeconds)
	default:
		if errors.Is(err, types.ErrInvalidID) {
			status, msg, kind = http.StatusNotFound, "not found", types.KIND_NOT_FOUND
		} else {
			log.Printf("[http] %s %s: %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
		}
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": kind})
}

func messageOf(err error) string {
	var e *types.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func badRequest(ctx *gin.Context, err error) {
	log.Printf("Error validating request: %s\n", err.Error())
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
