package entity

const (
	OrderPending   = "PENDING"
	OrderPreparing = "PREPARING"
	OrderReady     = "READY"
	OrderCompleted = "COMPLETED"
	OrderCancelled = "CANCELLED"
)

// NextOrderStatuses lists the statuses an order may move to. Terminal statuses have none.
var NextOrderStatuses = map[string][]string{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderCompleted},
}

func CanTransition(from, to string) bool {
	for _, s := range NextOrderStatuses[from] {
		if s == to {
			return true
		}
	}
	return false
}
