package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/query"
	"tour-booking-api/pkg/apierror"
)

var reviewColumns = []string{
	"id", "review", "rating", "tour_id", "user_id", "created_at", "schema_version",
}

var ReviewQuery = query.Options{
	Filterable: map[string]bool{
		"rating": true, "tour_id": true, "user_id": true, "created_at": true,
	},
	Columns: reviewColumns,
	Hidden:  []string{"schema_version"},
}

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func reviewTargets(rv *model.Review) map[string]any {
	return map[string]any{
		"id":             &rv.ID,
		"review":         &rv.Review,
		"rating":         &rv.Rating,
		"tour_id":        &rv.TourID,
		"user_id":        &rv.UserID,
		"created_at":     &rv.CreatedAt,
		"schema_version": &rv.SchemaVersion,
	}
}

func (r *ReviewRepository) Find(ctx context.Context, spec *query.Spec, scope query.Scope) ([]model.Review, error) {
	cols := spec.Columns()
	where, args := spec.Where(scope, 1)

	sql := "SELECT " + strings.Join(cols, ", ") + " FROM reviews" +
		where + spec.OrderBy() + spec.LimitOffset()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		dests, err := scanTargets(reviewTargets(&rv), cols)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// FindByID loads a review, joining in the author and tour when asked for via
// expand ("user", "tour").
func (r *ReviewRepository) FindByID(ctx context.Context, id string, expand []string) (model.Review, error) {
	var rv model.Review
	dests, err := scanTargets(reviewTargets(&rv), reviewColumns)
	if err != nil {
		return model.Review{}, err
	}

	cols := make([]string, len(reviewColumns))
	for i, col := range reviewColumns {
		cols[i] = "r." + col
	}
	sql := "SELECT " + strings.Join(cols, ", ")
	joins := ""

	for _, rel := range expand {
		switch rel {
		case "user":
			rv.User = &model.ReviewUser{}
			sql += ", u.name, u.photo"
			joins += " JOIN users u ON u.id = r.user_id"
			dests = append(dests, &rv.User.Name, &rv.User.Photo)
		case "tour":
			rv.Tour = &model.ReviewTour{}
			sql += ", t.name"
			joins += " JOIN tours t ON t.id = r.tour_id"
			dests = append(dests, &rv.Tour.Name)
		}
	}

	err = r.pool.QueryRow(ctx, sql+" FROM reviews r"+joins+" WHERE r.id = $1", id).
		Scan(dests...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Review{}, apierror.Newf(404, "No review found with id %s", id)
	}
	if err != nil {
		return model.Review{}, fmt.Errorf("find review by id: %w", err)
	}
	return rv, nil
}

func (r *ReviewRepository) Insert(ctx context.Context, doc *model.Review) (model.Review, error) {
	doc.Review = strings.TrimSpace(doc.Review)
	if err := validate.Struct(doc); err != nil {
		return model.Review{}, err
	}

	var created model.Review
	dests, err := scanTargets(reviewTargets(&created), reviewColumns)
	if err != nil {
		return model.Review{}, err
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO reviews (review, rating, tour_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+strings.Join(reviewColumns, ", "),
		doc.Review, doc.Rating, doc.TourID, doc.UserID).
		Scan(dests...)
	if err != nil {
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}
	return created, nil
}

func (r *ReviewRepository) Update(ctx context.Context, id string, patch map[string]any) (model.Review, error) {
	rv, err := r.FindByID(ctx, id, nil)
	if err != nil {
		return model.Review{}, err
	}

	for field, value := range patch {
		switch field {
		case "review":
			rv.Review, err = patchString(field, value)
		case "rating":
			rv.Rating, err = patchFloat(field, value)
		default:
			return model.Review{}, apierror.Newf(400, "field %q cannot be updated", field)
		}
		if err != nil {
			return model.Review{}, err
		}
	}
	if err := validate.Struct(&rv); err != nil {
		return model.Review{}, err
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE reviews SET review = $2, rating = $3 WHERE id = $1`,
		rv.ID, rv.Review, rv.Rating)
	if err != nil {
		return model.Review{}, fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Review{}, apierror.Newf(404, "No review found with id %s", id)
	}
	return rv, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.Newf(404, "No review found with id %s", id)
	}
	return nil
}
