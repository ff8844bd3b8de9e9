package order

import "github.com/MikeMC777/foodapp/internal/auth"

// Relationship is what an actor is with respect to one order, as opposed to
// their account role. Every read and write decision is derived from it.
type Relationship struct {
	IsOwner           bool
	IsRestaurantOwner bool
	IsDeliveryPerson  bool
	IsAdmin           bool
}

// RelationshipOf computes a's relationship to o. restaurantOwnerID is the
// owner of o's restaurant, empty when it has none.
func RelationshipOf(a auth.Actor, o *Order, restaurantOwnerID string) Relationship {
	return Relationship{
		IsOwner:           a.UserID != "" && a.UserID == o.CustomerID,
		IsRestaurantOwner: restaurantOwnerID != "" && a.UserID == restaurantOwnerID,
		IsDeliveryPerson:  o.AssignedTo != "" && a.UserID == o.AssignedTo,
		IsAdmin:           a.IsAdmin(),
	}
}

func (r Relationship) Any() bool {
	return r.IsOwner || r.IsRestaurantOwner || r.IsDeliveryPerson || r.IsAdmin
}

func (r Relationship) CanRead() bool { return r.Any() }

func (r Relationship) CanAssign() bool { return r.IsRestaurantOwner || r.IsAdmin }

// CanCancel covers the actor side only; the status check lives in the
// transition table.
func (r Relationship) CanCancel() bool { return r.IsOwner || r.IsAdmin }

// CustomerOnly reports an actor whose only tie to the order is having placed it.
func (r Relationship) CustomerOnly() bool {
	return r.IsOwner && !r.IsRestaurantOwner && !r.IsDeliveryPerson && !r.IsAdmin
}

// writers lists which relationships may move an order into a status.
var writers = map[Status]func(Relationship) bool{
	StatusConfirmed:      func(r Relationship) bool { return r.IsRestaurantOwner || r.IsAdmin },
	StatusPreparing:      func(r Relationship) bool { return r.IsRestaurantOwner || r.IsAdmin },
	StatusOutForDelivery: func(r Relationship) bool { return r.IsRestaurantOwner || r.IsDeliveryPerson || r.IsAdmin },
	StatusDelivered:      func(r Relationship) bool { return r.IsDeliveryPerson || r.IsAdmin },
	StatusCancelled:      func(r Relationship) bool { return r.CanCancel() },
}

// CanSetStatus reports whether r may move an order into target.
func (r Relationship) CanSetStatus(target Status) bool {
	allow, ok := writers[target]
	return ok && allow(r)
}

// transitions is the lifecycle graph. A placed order may go straight to
// preparing; every other step follows the chain
// placed, confirmed, preparing, out_for_delivery, delivered.
var transitions = map[Status][]Status{
	StatusPlaced:         {StatusConfirmed, StatusPreparing, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// CanTransition checks if from->to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
