package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hotel_listings/internal/domain"
)

// MySQL error number for a unique key violation.
const errDupEntry = 1062

var orderColumns = map[string]string{
	domain.SortCreatedAt: "h.created_at",
	domain.SortUpdatedAt: "h.updated_at",
	domain.SortName:      "h.hotel_name",
	domain.SortRanking:   "h.ranking",
}

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Create(ctx context.Context, h *domain.Hotel) error {
	h.ID = uuid.NewString()
	h.CreatedAt = now()
	h.UpdatedAt = h.CreatedAt
	_, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.ID,
		h.Name,
		h.TypeID,
		h.Address.Province,
		h.Address.District,
		h.Address.Ward,
		h.Address.StreetAddress,
		h.Slug,
		h.Image.Path,
		h.Ranking,
		valStr(h.Description),
		h.CreatedAt,
		h.UpdatedAt,
	)
	return mapErr("insert hotel", err)
}

func (r *Repo) UpdateByID(ctx context.Context, id string, h domain.Hotel) error {
	res, err := r.db.ExecContext(ctx, updateHotelSQL,
		h.Name,
		h.TypeID,
		h.Address.Province,
		h.Address.District,
		h.Address.Ward,
		h.Address.StreetAddress,
		h.Slug,
		h.Image.Path,
		h.Ranking,
		valStr(h.Description),
		now(),
		id,
	)
	if err != nil {
		return mapErr("update hotel", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// zero rows: either absent, or matched with no effective change
	var one int
	if err := r.db.QueryRowContext(ctx, hotelExistsSQL, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update hotel: %w", err)
	}
	return nil
}

func (r *Repo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteHotelSQL, id)
	if err != nil {
		return fmt.Errorf("delete hotel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) CreateType(ctx context.Context, t *domain.HotelType) error {
	t.ID = uuid.NewString()
	t.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, insertTypeSQL, t.ID, t.Name, valStr(t.Description), t.CreatedAt)
	return mapErr("insert hotel type", err)
}

func (r *Repo) FindByID(ctx context.Context, id string) (domain.Hotel, error) {
	hs, err := r.queryHotels(ctx, selectHotelsSQL+"WHERE h.id = ?", id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if len(hs) == 0 {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return hs[0], nil
}

func (r *Repo) FindMany(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, error) {
	where, args := buildWhere(f)
	return r.queryHotels(ctx, selectHotelsSQL+where+" ORDER BY h.created_at, h.id", args...)
}

// Paginate runs the COUNT and the page query concurrently.
func (r *Repo) Paginate(ctx context.Context, f domain.HotelFilter, p domain.PageRequest) (domain.HotelPage, error) {
	where, args := buildWhere(f)

	var (
		total int64
		items []domain.Hotel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.db.QueryRowContext(gctx, countHotelsSQL+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count hotels: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		q := selectHotelsSQL + where + " ORDER BY " + orderBy(p) + " LIMIT ? OFFSET ?"
		pageArgs := append(append([]any{}, args...), p.Limit, p.Offset())
		var err error
		items, err = r.queryHotels(gctx, q, pageArgs...)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.HotelPage{}, err
	}
	return domain.NewHotelPage(items, total, p), nil
}

func (r *Repo) ResolveTypes(ctx context.Context, ids []string) (map[string]domain.HotelType, error) {
	out := make(map[string]domain.HotelType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ts, err := r.queryTypes(ctx, selectTypesSQL+"WHERE id IN ("+placeholders(len(ids))+")", toArgs(ids)...)
	if err != nil {
		return nil, err
	}
	for _, t := range ts {
		out[t.ID] = t
	}
	return out, nil
}

func (r *Repo) ListTypes(ctx context.Context) ([]domain.HotelType, error) {
	return r.queryTypes(ctx, selectTypesSQL+"ORDER BY name")
}

// buildWhere renders the predicate; it returns "" when f has no clauses.
func buildWhere(f domain.HotelFilter) (string, []any) {
	var where []string
	var args []any

	if len(f.IDs) > 0 {
		where = append(where, "h.id IN ("+placeholders(len(f.IDs))+")")
		args = append(args, toArgs(f.IDs)...)
	}
	if f.Name != "" {
		where = append(where, "h.hotel_name = ?")
		args = append(args, f.Name)
	}
	if f.NameContains != "" {
		where = append(where, "LOWER(h.hotel_name) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(f.NameContains))+"%")
	}
	if len(f.TypeIn) > 0 {
		where = append(where, "h.hotel_type_id IN ("+placeholders(len(f.TypeIn))+")")
		args = append(args, toArgs(f.TypeIn)...)
	}
	if f.ExcludeID != "" {
		where = append(where, "h.id <> ?")
		args = append(args, f.ExcludeID)
	}

	if len(where) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func orderBy(p domain.PageRequest) string {
	col, ok := orderColumns[p.Sort]
	if !ok {
		col = orderColumns[domain.SortCreatedAt]
	}
	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	// id breaks ties so pages never overlap
	return col + " " + dir + ", h.id " + dir
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && me.Number == errDupEntry {
		return domain.ErrDuplicateName
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Repo) queryHotels(ctx context.Context, q string, args ...any) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query hotels: %w", err)
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		var h domain.Hotel
		var desc sql.NullString
		if err := rows.Scan(
			&h.ID,
			&h.Name,
			&h.TypeID,
			&h.Address.Province,
			&h.Address.District,
			&h.Address.Ward,
			&h.Address.StreetAddress,
			&h.Slug,
			&h.Image.Path,
			&h.Ranking,
			&desc,
			&h.CreatedAt,
			&h.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan hotel: %w", err)
		}
		if desc.Valid {
			h.Description = desc.String
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hotels: %w", err)
	}
	return out, nil
}

func (r *Repo) queryTypes(ctx context.Context, q string, args ...any) ([]domain.HotelType, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query hotel types: %w", err)
	}
	defer rows.Close()

	var out []domain.HotelType
	for rows.Next() {
		var t domain.HotelType
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &desc, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hotel type: %w", err)
		}
		if desc.Valid {
			t.Description = desc.String
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hotel types: %w", err)
	}
	return out, nil
}
