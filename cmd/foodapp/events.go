package main

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/foodapp/internal/httpx"
	"github.com/MikeMC777/foodapp/internal/notify"
	"github.com/MikeMC777/foodapp/internal/order"
)

// defaultKeepAlive is how often an idle stream gets a comment line and its
// read access is checked again.
const defaultKeepAlive = 25 * time.Second

// orderEventsHandler godoc
// @Summary     Live events for one order
// @Description Server-sent events. The stream ends once the caller can no longer read the order.
// @Tags        orders
// @Security    BearerAuth
// @Produce     text/event-stream
// @Param       id path string true "Order ID"
// @Success     200 {object} order.Event
// @Failure     400 {object} httpx.ErrorResponse
// @Failure     403 {object} httpx.ErrorResponse
// @Failure     404 {object} httpx.ErrorResponse
// @Router      /orders/{id}/events [get]
func orderEventsHandler(orders *order.Service, hub *notify.Hub, every time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		id := c.Param("id")
		if !validID(c, id, "Invalid order ID format") {
			return
		}
		canRead := func(ctx context.Context) error {
			_, err := orders.Get(ctx, actor, id)
			return err
		}
		if err := canRead(c.Request.Context()); err != nil {
			httpx.WriteError(c, err)
			return
		}
		streamRoom(c, hub, order.OrderRoom(id), every, canRead)
	}
}

// restaurantEventsHandler godoc
// @Summary     Live order events for a restaurant
// @Description Server-sent events for the restaurant owner or an admin.
// @Tags        restaurants
// @Security    BearerAuth
// @Produce     text/event-stream
// @Param       id path string true "Restaurant ID"
// @Success     200 {object} order.Event
// @Failure     400 {object} httpx.ErrorResponse
// @Failure     403 {object} httpx.ErrorResponse
// @Failure     404 {object} httpx.ErrorResponse
// @Router      /restaurants/{id}/events [get]
func restaurantEventsHandler(orders *order.Service, hub *notify.Hub, every time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		id := c.Param("id")
		if !validID(c, id, "Invalid restaurant ID format") {
			return
		}
		canRead := func(ctx context.Context) error {
			return orders.RestaurantAccess(ctx, actor, id)
		}
		if err := canRead(c.Request.Context()); err != nil {
			httpx.WriteError(c, err)
			return
		}
		streamRoom(c, hub, order.RestaurantRoom(id), every, canRead)
	}
}

// streamRoom relays room events as server-sent events until the client
// leaves, the subscription is closed or canRead starts failing.
func streamRoom(c *gin.Context, hub *notify.Hub, room string, every time.Duration, canRead func(context.Context) error) {
	sub := hub.Subscribe(room)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("joined", gin.H{"room": room})
	c.Writer.Flush()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-ticker.C:
			if err := canRead(ctx); err != nil {
				log.Printf("[events] room=%s closed: %v", room, err)
				return false
			}
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		case <-ctx.Done():
			return false
		}
	})
}
