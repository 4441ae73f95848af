package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/config"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/model"
)

// importModeUpdate tells the import procedures to update existing nodes in
// place. Instance attributes are created by propagation from the type
// system; imports only need to update configuration values.
const importModeUpdate = "UPDATE"

// Postgres implements Store against the downstream PostgreSQL database.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// NewPostgres connects to the downstream store and verifies the connection.
func NewPostgres(ctx context.Context, cfg config.StoreConfig, logger *logging.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing store DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging store: %w", err)
	}

	return &Postgres{
		pool:   pool,
		logger: logger.With("component", "store"),
	}, nil
}

// EnsureLibrary creates the type library row if it is missing.
func (p *Postgres) EnsureLibrary(ctx context.Context, library, displayName string) error {
	description := fmt.Sprintf("Library hosting the type system synchronised from application %s", library)

	const query = `
		insert into model.libraries (relative_name, display_name, description)
		select $1, $2, $3
		where not exists (select 1 from model.libraries where relative_name = $1)`

	if _, err := p.pool.Exec(ctx, query, library, displayName, description); err != nil {
		return fmt.Errorf("ensuring library %q: %w", library, err)
	}
	return nil
}

// EnsureParent resolves the parent equipment node, creating intermediate
// nodes as needed, and returns its id.
func (p *Postgres) EnsureParent(ctx context.Context, parentFqn string) (int64, error) {
	const query = `select model.get_or_create_equipment_parent($1)`

	var id *int64
	if err := p.pool.QueryRow(ctx, query, parentFqn).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensuring parent %q: %w", parentFqn, err)
	}
	if id == nil {
		return 0, fmt.Errorf("%w: %q", ErrParentNotFound, parentFqn)
	}
	return *id, nil
}

// SaveTypes submits one type package to the import procedure.
func (p *Postgres) SaveTypes(ctx context.Context, pkg *model.TypePackage) error {
	nodes, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("encoding type package: %w", err)
	}

	const query = `select model.import_type_system($1::jsonb, $2)`

	var result string
	if err := p.pool.QueryRow(ctx, query, string(nodes), importModeUpdate).Scan(&result); err != nil {
		return fmt.Errorf("importing type system: %w", err)
	}

	p.logger.Debug("type system imported",
		"equipment_types", len(pkg.EquipmentTypes),
		"enumeration_types", len(pkg.EnumerationTypes),
		"result", result)
	return nil
}

// SaveInstances submits one instance package to the import procedure.
// The procedure receives the bare equipment array; instance attributes are
// propagated from the type system, the import only updates configuration
// values.
func (p *Postgres) SaveInstances(ctx context.Context, pkg *model.InstancePackage) error {
	nodes, err := json.Marshal(pkg.Equipment)
	if err != nil {
		return fmt.Errorf("encoding instance package: %w", err)
	}

	const query = `select model.import_equipment($1::bigint, $2::jsonb, $3)`

	var result string
	if err := p.pool.QueryRow(ctx, query, nil, string(nodes), importModeUpdate).Scan(&result); err != nil {
		return fmt.Errorf("importing equipment: %w", err)
	}

	p.logger.Debug("equipment imported", "count", len(pkg.Equipment), "result", result)
	return nil
}

// FetchTypeFingerprints returns persisted version tags for the named types.
func (p *Postgres) FetchTypeFingerprints(ctx context.Context, library string, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return map[string]string{}, nil
	}

	const query = `
		select relative_name, document->>'etag'
		from model.equipment_types
		where part_of_id = (select id from model.libraries where relative_name = $1)
		  and document->>'etag' is not null
		  and relative_name = any($2)`

	rows, err := p.pool.Query(ctx, query, library, names)
	if err != nil {
		return nil, fmt.Errorf("fetching type fingerprints: %w", err)
	}
	return scanFingerprints(rows)
}

// FetchInstanceFingerprints returns persisted version tags for the named
// equipment instances.
func (p *Postgres) FetchInstanceFingerprints(ctx context.Context, fqns []string) (map[string]string, error) {
	if len(fqns) == 0 {
		return map[string]string{}, nil
	}

	// fqn is an array column downstream; match on the dot-joined path.
	const query = `
		select relative_name, document->>'etag'
		from model.equipment
		where array_to_string(fqn, '.') = any($1)
		  and document->>'etag' is not null`

	rows, err := p.pool.Query(ctx, query, fqns)
	if err != nil {
		return nil, fmt.Errorf("fetching instance fingerprints: %w", err)
	}
	return scanFingerprints(rows)
}

func scanFingerprints(rows pgx.Rows) (map[string]string, error) {
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var name, etag string
		if err := rows.Scan(&name, &etag); err != nil {
			return nil, fmt.Errorf("scanning fingerprint row: %w", err)
		}
		result[name] = etag
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading fingerprint rows: %w", err)
	}
	return result, nil
}

// LookupAttribute resolves one attribute to its id and declared data type.
func (p *Postgres) LookupAttribute(ctx context.Context, equipmentType, equipment, childEquipment, attribute string) (AttributeIdentity, error) {
	var (
		query string
		args  []any
	)

	if childEquipment == "" {
		// Attribute directly on the equipment.
		query = `
			select attr.id, attr.data_type
			from model.attributes attr
			join model.equipment eqpt on attr.part_of_id = eqpt.id
			join model.equipment_types eptp on eptp.id = eqpt.type_id
			where eptp.relative_name = $1
			  and eqpt.relative_name = $2
			  and attr.relative_name = $3`
		args = []any{equipmentType, equipment, attribute}
	} else {
		// Attribute on a child equipment nested under the equipment.
		query = `
			select attr.id, attr.data_type
			from model.attributes attr
			join model.equipment eqpt on attr.part_of_id = eqpt.id
			  and eqpt.relative_name = $3
			  and attr.relative_name = $4
			  and eqpt.part_of_id = (
				select eqpt.id from model.equipment eqpt
				join model.equipment_types eptp on eptp.id = eqpt.type_id
				where eptp.relative_name = $1
				  and eqpt.relative_name = $2)`
		args = []any{equipmentType, equipment, childEquipment, attribute}
	}

	var (
		id           int64
		dataTypeName string
	)
	err := p.pool.QueryRow(ctx, query, args...).Scan(&id, &dataTypeName)
	if errors.Is(err, pgx.ErrNoRows) {
		return AttributeIdentity{}, fmt.Errorf("%w: %s/%s/%s/%s",
			ErrAttributeNotFound, equipmentType, equipment, childEquipment, attribute)
	}
	if err != nil {
		return AttributeIdentity{}, fmt.Errorf("looking up attribute %q: %w", attribute, err)
	}

	dataType, ok := model.ParseDataType(dataTypeName)
	if !ok {
		return AttributeIdentity{}, fmt.Errorf("attribute %q: unknown data type %q", attribute, dataTypeName)
	}

	return AttributeIdentity{ID: id, DataType: dataType}, nil
}

// UpsertTimeSeries writes one column batch through the history upsert
// procedure for the batch's data type.
func (p *Postgres) UpsertTimeSeries(ctx context.Context, dataType model.DataType, ids []int64, values []any, timestamps []time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	proc, err := upsertProcedure(dataType)
	if err != nil {
		return err
	}

	converted, cast, err := convertValues(dataType, values)
	if err != nil {
		return err
	}

	// Every sample is written with a "good" quality status.
	statuses := make([]int64, len(ids))

	query := fmt.Sprintf("select %s($1, $2%s, $3, $4)", proc, cast)
	if _, err := p.pool.Exec(ctx, query, ids, converted, statuses, timestamps); err != nil {
		return fmt.Errorf("upserting %d %s samples: %w", len(ids), dataType, err)
	}

	p.logger.Debug("time series upserted", "data_type", string(dataType), "count", len(ids))
	return nil
}

// HealthCheck verifies the pool can reach the database.
func (p *Postgres) HealthCheck(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("store health check: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
