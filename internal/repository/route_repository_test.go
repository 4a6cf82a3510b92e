package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-fees-api/internal/models"
)

func TestRouteRepositoryFindRoute(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRouteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM routes WHERE route_name = $1")).
		WithArgs("R1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "route_name", "months", "created_at"}).AddRow(1, "R1", []byte("{Jan,Feb,Mar}"), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM routes WHERE route_name = $1")).
		WithArgs("R2").
		WillReturnError(sql.ErrNoRows)

	route, err := repo.FindRoute(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, []string(route.Months))

	_, err = repo.FindRoute(context.Background(), "R2")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouteRepositoryFindPlan(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRouteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE class_name = $1 AND category_name = $2 AND route_name = $3")).
		WithArgs("10th", "General", "R1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_name", "category_name", "route_name", "price", "created_at"}).
			AddRow(1, "10th", "General", "R1", 100.0, time.Now()))

	plan, err := repo.FindPlan(context.Background(), "10th", "General", "R1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, plan.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouteRepositoryUpserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRouteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (route_name) DO UPDATE SET months = EXCLUDED.months")).
		WithArgs("R1", "{\"Jan\",\"Feb\"}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (class_name, category_name, route_name) DO UPDATE SET price = EXCLUDED.price")).
		WithArgs("10th", "General", "R1", 120.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(4, time.Now()))

	route := &models.Route{RouteName: "R1", Months: []string{"Jan", "Feb"}}
	require.NoError(t, repo.UpsertRoute(context.Background(), route))
	assert.Equal(t, int64(3), route.ID)

	plan := &models.RoutePlan{ClassName: "10th", CategoryName: "General", RouteName: "R1", Price: 120}
	require.NoError(t, repo.UpsertPlan(context.Background(), plan))
	assert.Equal(t, int64(4), plan.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
