package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/google/uuid"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/rbroggi/wasteroute/internal/core/ports"
)

// SaveRequest inserts a new collection request.
func (p *PostgresDB) SaveRequest(ctx context.Context, request *model.CollectionRequest) error {
	if request == nil {
		return errors.New("nil collection request passed to save method")
	}
	id, err := newID(request.ID)
	if err != nil {
		return err
	}
	now := p.nowFunc()
	row := toRequestDB(request)
	row.ID = id
	row.CreatedAt = now
	row.UpdatedAt = now
	if _, err := p.db.ModelContext(ctx, row).Insert(); err != nil {
		return persistenceErr("inserting collection request", err)
	}

	request.ID = id.String()
	request.CreatedAt = now
	request.UpdatedAt = now
	return nil
}

// UpdateRequest overwrites the mutable fields of the request. It returns model.ErrNotFound if it does not exist.
func (p *PostgresDB) UpdateRequest(ctx context.Context, request *model.CollectionRequest) error {
	if request == nil {
		return errors.New("nil collection request passed to update method")
	}
	id, err := parseID(request.ID)
	if err != nil {
		return err
	}
	row := toRequestDB(request)
	row.ID = id
	row.UpdatedAt = p.nowFunc()
	res, err := p.db.ModelContext(ctx, row).
		Column("status", "address", "latitude", "longitude", "instructions",
			"assigned_collector_id", "scheduled_date", "completed_date", "notes", "updated_at").
		WherePK().
		Update()
	if err != nil {
		return persistenceErr("updating collection request", err)
	}
	if res.RowsAffected() < 1 {
		return model.ErrNotFound
	}
	request.UpdatedAt = row.UpdatedAt
	return nil
}

// GetRequest returns a collection request by id.
func (p *PostgresDB) GetRequest(ctx context.Context, id string) (*model.CollectionRequest, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row := &requestDB{ID: uid}
	err = p.db.ModelContext(ctx, row).WherePK().Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("selecting collection request", err)
	}
	request := row.toModel()
	return &request, nil
}

// GetRequests resolves the given ids. Unknown or malformed ids are absent from the result.
func (p *PostgresDB) GetRequests(ctx context.Context, ids []string) (map[string]model.CollectionRequest, error) {
	uids := make([]string, 0, len(ids))
	for _, id := range ids {
		if uid, err := uuid.Parse(id); err == nil {
			uids = append(uids, uid.String())
		}
	}
	found := make(map[string]model.CollectionRequest, len(uids))
	if len(uids) == 0 {
		return found, nil
	}

	var rows []requestDB
	if err := p.db.ModelContext(ctx, &rows).WhereIn("id IN (?)", uids).Select(); err != nil && !errors.Is(err, pg.ErrNoRows) {
		return nil, persistenceErr("resolving collection requests", err)
	}
	for _, row := range rows {
		found[row.ID.String()] = row.toModel()
	}
	return found, nil
}

// ListRequests lists requests matching the query, newest first.
func (p *PostgresDB) ListRequests(ctx context.Context, query ports.ListRequestsQuery) ([]model.CollectionRequest, error) {
	var rows []requestDB
	q := p.db.ModelContext(ctx, &rows).Order("created_at DESC")
	if query.RequesterID != "" {
		q = q.Where("requester_id = ?", query.RequesterID)
	}
	if query.CollectorID != "" {
		q = q.Where("assigned_collector_id = ?", query.CollectorID)
	}
	if len(query.Statuses) > 0 {
		statuses := make([]string, len(query.Statuses))
		for i, s := range query.Statuses {
			statuses[i] = string(s)
		}
		q = q.WhereIn("status IN (?)", statuses)
	}
	if query.Limit != uint32(0) {
		q = q.Limit(int(query.Limit))
	}
	if query.Offset != uint32(0) {
		q = q.Offset(int(query.Offset))
	}
	if err := q.Select(); err != nil && !errors.Is(err, pg.ErrNoRows) {
		return nil, persistenceErr("listing collection requests", err)
	}

	requests := make([]model.CollectionRequest, len(rows))
	for i, row := range rows {
		requests[i] = row.toModel()
	}
	return requests, nil
}

type requestDB struct {
	tableName struct{} `pg:"wasteroute.collection_requests"`

	ID          uuid.UUID `pg:"id,type:uuid,pk"`
	RequesterID string    `pg:"requester_id"`
	WasteType   string    `pg:"waste_type"`
	Status      string    `pg:"status"`

	// pickup location, flattened
	Address      string   `pg:"address"`
	Latitude     *float64 `pg:"latitude"`
	Longitude    *float64 `pg:"longitude"`
	Instructions string   `pg:"instructions"`

	AssignedCollectorID string    `pg:"assigned_collector_id"`
	ScheduledDate       time.Time `pg:"scheduled_date"`
	CompletedDate       time.Time `pg:"completed_date"`
	Notes               string    `pg:"notes"`
	CreatedAt           time.Time `pg:"created_at"`
	UpdatedAt           time.Time `pg:"updated_at"`
}

func toRequestDB(r *model.CollectionRequest) *requestDB {
	row := &requestDB{
		RequesterID:         r.RequesterID,
		WasteType:           string(r.WasteType),
		Status:              string(r.Status),
		Address:             r.PickupLocation.Address,
		Instructions:        r.PickupLocation.Instructions,
		AssignedCollectorID: r.AssignedCollectorID,
		ScheduledDate:       r.ScheduledDate,
		CompletedDate:       r.CompletedDate,
		Notes:               r.Notes,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if c := r.PickupLocation.Coordinates; c != nil {
		lat, lng := c.Latitude, c.Longitude
		row.Latitude, row.Longitude = &lat, &lng
	}
	return row
}

func (r requestDB) toModel() model.CollectionRequest {
	loc := model.PickupLocation{Address: r.Address, Instructions: r.Instructions}
	if r.Latitude != nil && r.Longitude != nil {
		loc.Coordinates = &model.GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return model.CollectionRequest{
		ID:                  r.ID.String(),
		RequesterID:         r.RequesterID,
		WasteType:           model.WasteType(r.WasteType),
		Status:              model.RequestStatus(r.Status),
		PickupLocation:      loc,
		AssignedCollectorID: r.AssignedCollectorID,
		ScheduledDate:       r.ScheduledDate,
		CompletedDate:       r.CompletedDate,
		Notes:               r.Notes,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}
