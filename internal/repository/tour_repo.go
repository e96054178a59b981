package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/query"
	"tour-booking-api/internal/util"
	"tour-booking-api/pkg/apierror"
)

var tourColumns = []string{
	"id", "name", "slug", "duration", "max_group_size", "difficulty",
	"ratings_average", "ratings_quantity", "price", "price_discount",
	"summary", "description", "image_cover", "images", "start_dates",
	"created_at", "schema_version",
}

// TourQuery is the query-builder contract for the tours resource.
var TourQuery = query.Options{
	Filterable: map[string]bool{
		"name": true, "slug": true, "duration": true, "max_group_size": true,
		"difficulty": true, "ratings_average": true, "ratings_quantity": true,
		"price": true, "price_discount": true, "created_at": true,
	},
	Columns: tourColumns,
	Hidden:  []string{"schema_version"},
}

type TourRepository struct {
	pool *pgxpool.Pool
}

func NewTourRepository(pool *pgxpool.Pool) *TourRepository {
	return &TourRepository{pool: pool}
}

func tourTargets(t *model.Tour) map[string]any {
	return map[string]any{
		"id":               &t.ID,
		"name":             &t.Name,
		"slug":             &t.Slug,
		"duration":         &t.Duration,
		"max_group_size":   &t.MaxGroupSize,
		"difficulty":       &t.Difficulty,
		"ratings_average":  &t.RatingsAverage,
		"ratings_quantity": &t.RatingsQuantity,
		"price":            &t.Price,
		"price_discount":   &t.PriceDiscount,
		"summary":          &t.Summary,
		"description":      &t.Description,
		"image_cover":      &t.ImageCover,
		"images":           &t.Images,
		"start_dates":      &t.StartDates,
		"created_at":       &t.CreatedAt,
		"schema_version":   &t.SchemaVersion,
	}
}

func (r *TourRepository) Find(ctx context.Context, spec *query.Spec, scope query.Scope) ([]model.Tour, error) {
	cols := spec.Columns()
	where, args := spec.Where(scope, 1)

	sql := "SELECT " + strings.Join(cols, ", ") + " FROM tours" +
		where + spec.OrderBy() + spec.LimitOffset()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	defer rows.Close()

	tours := make([]model.Tour, 0)
	for rows.Next() {
		var t model.Tour
		dests, err := scanTargets(tourTargets(&t), cols)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan tour: %w", err)
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

func (r *TourRepository) FindByID(ctx context.Context, id string, _ []string) (model.Tour, error) {
	var t model.Tour
	dests, err := scanTargets(tourTargets(&t), tourColumns)
	if err != nil {
		return model.Tour{}, err
	}

	err = r.pool.QueryRow(ctx,
		"SELECT "+strings.Join(tourColumns, ", ")+" FROM tours WHERE id = $1", id).
		Scan(dests...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tour{}, apierror.Newf(404, "No tour found with id %s", id)
	}
	if err != nil {
		return model.Tour{}, fmt.Errorf("find tour by id: %w", err)
	}
	return t, nil
}

func (r *TourRepository) Insert(ctx context.Context, doc *model.Tour) (model.Tour, error) {
	r.normalize(doc)
	if err := validate.Struct(doc); err != nil {
		return model.Tour{}, err
	}

	var created model.Tour
	dests, err := scanTargets(tourTargets(&created), tourColumns)
	if err != nil {
		return model.Tour{}, err
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO tours (name, slug, duration, max_group_size, difficulty,
		                   ratings_average, ratings_quantity, price, price_discount,
		                   summary, description, image_cover, images, start_dates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+strings.Join(tourColumns, ", "),
		doc.Name, doc.Slug, doc.Duration, doc.MaxGroupSize, doc.Difficulty,
		doc.RatingsAverage, doc.RatingsQuantity, doc.Price, doc.PriceDiscount,
		doc.Summary, doc.Description, doc.ImageCover, doc.Images, doc.StartDates).
		Scan(dests...)
	if err != nil {
		return model.Tour{}, fmt.Errorf("create tour: %w", err)
	}
	return created, nil
}

func (r *TourRepository) Update(ctx context.Context, id string, patch map[string]any) (model.Tour, error) {
	t, err := r.FindByID(ctx, id, nil)
	if err != nil {
		return model.Tour{}, err
	}

	if err := applyTourPatch(&t, patch); err != nil {
		return model.Tour{}, err
	}
	r.normalize(&t)
	if err := validate.Struct(&t); err != nil {
		return model.Tour{}, err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE tours
		SET name = $2, slug = $3, duration = $4, max_group_size = $5,
		    difficulty = $6, ratings_average = $7, ratings_quantity = $8,
		    price = $9, price_discount = $10, summary = $11, description = $12,
		    image_cover = $13, images = $14, start_dates = $15
		WHERE id = $1`,
		t.ID, t.Name, t.Slug, t.Duration, t.MaxGroupSize, t.Difficulty,
		t.RatingsAverage, t.RatingsQuantity, t.Price, t.PriceDiscount,
		t.Summary, t.Description, t.ImageCover, t.Images, t.StartDates)
	if err != nil {
		return model.Tour{}, fmt.Errorf("update tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Tour{}, apierror.Newf(404, "No tour found with id %s", id)
	}
	return t, nil
}

func (r *TourRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.Newf(404, "No tour found with id %s", id)
	}
	return nil
}

// normalize is the first pipeline step: trim, derive the slug and make sure
// array columns are non-nil before they hit NOT NULL constraints.
func (r *TourRepository) normalize(t *model.Tour) {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = util.Slugify(t.Name)
	t.Difficulty = strings.ToLower(strings.TrimSpace(t.Difficulty))
	if t.RatingsAverage == 0 {
		t.RatingsAverage = 4.5
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
}

func applyTourPatch(t *model.Tour, patch map[string]any) error {
	for field, value := range patch {
		var err error
		switch field {
		case "name":
			t.Name, err = patchString(field, value)
		case "duration":
			t.Duration, err = patchInt(field, value)
		case "max_group_size":
			t.MaxGroupSize, err = patchInt(field, value)
		case "difficulty":
			t.Difficulty, err = patchString(field, value)
		case "ratings_average":
			t.RatingsAverage, err = patchFloat(field, value)
		case "ratings_quantity":
			t.RatingsQuantity, err = patchInt(field, value)
		case "price":
			t.Price, err = patchFloat(field, value)
		case "price_discount":
			t.PriceDiscount, err = patchFloat(field, value)
		case "summary":
			t.Summary, err = patchString(field, value)
		case "description":
			t.Description, err = patchString(field, value)
		case "image_cover":
			t.ImageCover, err = patchString(field, value)
		case "images":
			t.Images, err = patchStringSlice(field, value)
		default:
			return apierror.Newf(400, "field %q cannot be updated", field)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
