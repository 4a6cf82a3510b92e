package dto

// UpsertRouteRequest creates a route or replaces its billing months.
type UpsertRouteRequest struct {
	RouteName string   `json:"routeName" validate:"required,notblank,max=100"`
	Months    []string `json:"months" validate:"required,min=1"`
}

// UpsertRoutePlanRequest sets the monthly transport price for a class/category on a route.
type UpsertRoutePlanRequest struct {
	ClassName    string  `json:"className" validate:"required,notblank"`
	CategoryName string  `json:"categoryName" validate:"required,notblank"`
	RouteName    string  `json:"routeName" validate:"required,notblank"`
	Price        float64 `json:"price" validate:"gte=0"`
}
