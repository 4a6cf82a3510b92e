package models

import (
	"time"

	"github.com/lib/pq"
)

// Route is a transport route and the months it is billed for.
type Route struct {
	ID        int64          `db:"id" json:"id"`
	RouteName string         `db:"route_name" json:"routeName"`
	Months    pq.StringArray `db:"months" json:"months"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// RoutePlan is the per-month transport price for a class/category on a route.
type RoutePlan struct {
	ID           int64     `db:"id" json:"id"`
	ClassName    string    `db:"class_name" json:"className"`
	CategoryName string    `db:"category_name" json:"categoryName"`
	RouteName    string    `db:"route_name" json:"routeName"`
	Price        float64   `db:"price" json:"price"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
