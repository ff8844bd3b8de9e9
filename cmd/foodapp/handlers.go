package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/foodapp/internal/httpx"
	"github.com/MikeMC777/foodapp/internal/order"
	"github.com/MikeMC777/foodapp/internal/restaurant"
	"github.com/MikeMC777/foodapp/internal/user"
)

// validID writes a 400 with msg and returns false when id is not a UUID.
func validID(c *gin.Context, id, msg string) bool {
	if _, err := uuid.Parse(id); err != nil {
		httpx.BadRequest(c, msg)
		return false
	}
	return true
}

//
// ---------- AUTH ----------
//

// registerHandler godoc
// @Summary  Register a customer account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body user.RegisterRequest true "Sign-up payload"
// @Success  201 {object} user.AuthResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /auth/register [post]
func registerHandler(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.RegisterRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, "Invalid JSON body")
			return
		}
		out, err := users.Register(c.Request.Context(), in)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

// loginHandler godoc
// @Summary  Log in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body user.LoginRequest true "Credentials"
// @Success  200 {object} user.AuthResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Router   /auth/login [post]
func loginHandler(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.LoginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, "Invalid JSON body")
			return
		}
		out, err := users.Login(c.Request.Context(), in)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// meHandler godoc
// @Summary  Profile of the caller
// @Tags     auth
// @Security BearerAuth
// @Produce  json
// @Success  200 {object} user.User
// @Failure  401 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /auth/me [get]
func meHandler(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		u, err := users.Get(c.Request.Context(), actor.UserID)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

//
// ---------- RESTAURANTS ----------
//

// listRestaurantsHandler godoc
// @Summary  List active restaurants
// @Tags     restaurants
// @Produce  json
// @Success  200 {array}  restaurant.Restaurant
// @Router   /restaurants [get]
func listRestaurantsHandler(restaurants *restaurant.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := restaurants.ListActive(c.Request.Context())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// getRestaurantHandler godoc
// @Summary  Restaurant with its available menu
// @Tags     restaurants
// @Produce  json
// @Param    id path string true "Restaurant ID"
// @Success  200 {object} restaurant.DetailResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /restaurants/{id} [get]
func getRestaurantHandler(restaurants *restaurant.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !validID(c, id, "Invalid restaurant ID format") {
			return
		}
		out, err := restaurants.Detail(c.Request.Context(), id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

//
// ---------- ORDERS ----------
//

// createOrderHandler godoc
// @Summary  Place an order
// @Tags     orders
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body order.CreateOrderRequest true "Order payload"
// @Success  201 {object} order.Order
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /orders [post]
func createOrderHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "Invalid JSON body")
			return
		}
		if req.RestaurantID != "" && !validID(c, req.RestaurantID, "Invalid restaurant ID format") {
			return
		}
		for _, it := range req.Items {
			if it.MenuItemID != "" && !validID(c, it.MenuItemID, "Invalid menu item ID format") {
				return
			}
		}
		o, err := orders.Create(c.Request.Context(), actor, req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// myOrdersHandler godoc
// @Summary  Orders placed by the caller
// @Tags     orders
// @Security BearerAuth
// @Produce  json
// @Success  200 {array}  order.Order
// @Failure  401 {object} httpx.ErrorResponse
// @Router   /orders/my-orders [get]
func myOrdersHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		out, err := orders.ListMine(c.Request.Context(), actor)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// restaurantOrdersHandler godoc
// @Summary  Orders of a restaurant
// @Tags     orders
// @Security BearerAuth
// @Produce  json
// @Param    restaurantId path string true "Restaurant ID"
// @Success  200 {array}  order.Order
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /orders/restaurant/{restaurantId} [get]
func restaurantOrdersHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		id := c.Param("restaurantId")
		if !validID(c, id, "Invalid restaurant ID format") {
			return
		}
		out, err := orders.ListForRestaurant(c.Request.Context(), actor, id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// myAssignmentsHandler godoc
// @Summary  Orders assigned to the calling delivery person
// @Tags     orders
// @Security BearerAuth
// @Produce  json
// @Success  200 {array}  order.Order
// @Failure  403 {object} httpx.ErrorResponse
// @Router   /orders/delivery/my-assignments [get]
func myAssignmentsHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		out, err := orders.ListAssignments(c.Request.Context(), actor)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// listAllOrdersHandler godoc
// @Summary  List all orders
// @Description Admin only. limit is capped at 100.
// @Tags     orders
// @Security BearerAuth
// @Produce  json
// @Param    page   query int    false "Page, from 1" default(1)
// @Param    limit  query int    false "Page size"    default(10)
// @Param    status query string false "Only orders in this status"
// @Success  200 {object} order.ListResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Router   /orders [get]
func listAllOrdersHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		out, err := orders.ListAll(c.Request.Context(), actor, order.ListFilter{
			Status: order.Status(c.Query("status")),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// getOrderHandler godoc
// @Summary  Get an order
// @Tags     orders
// @Security BearerAuth
// @Produce  json
// @Param    id path string true "Order ID"
// @Success  200 {object} order.Order
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /orders/{id} [get]
func getOrderHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		id := c.Param("id")
		if !validID(c, id, "Invalid order ID format") {
			return
		}
		o, err := orders.Get(c.Request.Context(), actor, id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// orderHistoryHandler godoc
// @Summary  Status history of an order
// @Tags     orders
// @Security BearerAuth
// @Produce  json
// @Param    id path string true "Order ID"
// @Success  200 {array}  order.StatusChange
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /orders/{id}/history [get]
func orderHistoryHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		id := c.Param("id")
		if !validID(c, id, "Invalid order ID format") {
			return
		}
		out, err := orders.History(c.Request.Context(), actor, id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// updateStatusHandler godoc
// @Summary  Move an order to a new status
// @Tags     orders
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    id   path string                    true "Order ID"
// @Param    body body order.UpdateStatusRequest true "Target status"
// @Success  200 {object} order.Order
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /orders/{id}/status [patch]
func updateStatusHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		id := c.Param("id")
		if !validID(c, id, "Invalid order ID format") {
			return
		}
		var req order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "Invalid JSON body")
			return
		}
		o, err := orders.UpdateStatus(c.Request.Context(), actor, id, req.Status)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// assignHandler godoc
// @Summary  Assign a delivery person
// @Tags     orders
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    id   path string              true "Order ID"
// @Param    body body order.AssignRequest true "Delivery person"
// @Success  200 {object} order.Order
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /orders/{id}/assign [patch]
func assignHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		id := c.Param("id")
		if !validID(c, id, "Invalid order ID format") {
			return
		}
		var req order.AssignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "Invalid JSON body")
			return
		}
		if req.DeliveryPersonID != "" && !validID(c, req.DeliveryPersonID, "Invalid delivery person ID format") {
			return
		}
		o, err := orders.Assign(c.Request.Context(), actor, id, req.DeliveryPersonID)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// cancelOrderHandler godoc
// @Summary  Cancel an order
// @Tags     orders
// @Security BearerAuth
// @Produce  json
// @Param    id path string true "Order ID"
// @Success  200 {object} order.CancelResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /orders/{id} [delete]
func cancelOrderHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := httpx.ActorFrom(c)
		id := c.Param("id")
		if !validID(c, id, "Invalid order ID format") {
			return
		}
		o, err := orders.Cancel(c.Request.Context(), actor, id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.CancelResponse{Message: "Order cancelled successfully", Order: o})
	}
}
