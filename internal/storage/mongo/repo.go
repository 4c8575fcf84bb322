// Package mongo stores hotels as documents, with the type reference held as
// an ObjectID and resolved by a second lookup.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"hotel_listings/internal/domain"
)

const (
	hotelsColl = "hotels"
	typesColl  = "hotel_types"
)

type addressDoc struct {
	Province      int    `bson:"province"`
	District      int    `bson:"district"`
	Ward          int    `bson:"ward"`
	StreetAddress string `bson:"street_address"`
}

type imageDoc struct {
	Path string `bson:"path"`
}

type hotelDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"hotelName"`
	TypeID      primitive.ObjectID `bson:"hotelType"`
	Address     addressDoc         `bson:"address"`
	Slug        string             `bson:"slug"`
	Image       imageDoc           `bson:"hotelImage"`
	Ranking     float64            `bson:"ranking"`
	Description string             `bson:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type typeDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

// sort keys are stored under the same names the API uses
var sortFields = map[string]string{
	domain.SortCreatedAt: "createdAt",
	domain.SortUpdatedAt: "updatedAt",
	domain.SortName:      "hotelName",
	domain.SortRanking:   "ranking",
}

type Repo struct {
	hotels *mongo.Collection
	types  *mongo.Collection
}

func New(db *mongo.Database) *Repo {
	return &Repo{hotels: db.Collection(hotelsColl), types: db.Collection(typesColl)}
}

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique name indexes and the list indexes.
// Safe to call on every start.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.hotels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "hotelName", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_hotelName")},
		{Keys: bson.D{{Key: "hotelType", Value: 1}}, Options: options.Index().SetName("idx_hotelType")},
		{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_createdAt")},
	})
	if err != nil {
		return fmt.Errorf("hotels indexes: %w", err)
	}
	_, err = r.types.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
		// strength 2: type names are unique regardless of case
		Options: options.Index().SetUnique(true).SetName("uq_name").
			SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	})
	if err != nil {
		return fmt.Errorf("hotel_types indexes: %w", err)
	}
	return nil
}

func (r *Repo) Create(ctx context.Context, h *domain.Hotel) error {
	doc, err := toDoc(*h)
	if err != nil {
		return err
	}
	doc.CreatedAt = now()
	doc.UpdatedAt = doc.CreatedAt
	res, err := r.hotels.InsertOne(ctx, doc)
	if err != nil {
		return mapErr("insert hotel", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	*h = fromDoc(doc)
	return nil
}

func (r *Repo) UpdateByID(ctx context.Context, id string, h domain.Hotel) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	doc, err := toDoc(h)
	if err != nil {
		return err
	}
	set := bson.M{
		"hotelName":   doc.Name,
		"hotelType":   doc.TypeID,
		"address":     doc.Address,
		"slug":        doc.Slug,
		"hotelImage":  doc.Image,
		"ranking":     doc.Ranking,
		"description": doc.Description,
		"updatedAt":   now(),
	}
	res, err := r.hotels.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return mapErr("update hotel", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.hotels.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete hotel: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) CreateType(ctx context.Context, t *domain.HotelType) error {
	doc := typeDoc{Name: t.Name, Description: t.Description, CreatedAt: now()}
	res, err := r.types.InsertOne(ctx, doc)
	if err != nil {
		return mapErr("insert hotel type", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID).Hex()
	t.CreatedAt = doc.CreatedAt
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (domain.Hotel, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Hotel{}, domain.ErrNotFound
	}
	var doc hotelDoc
	if err := r.hotels.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, fmt.Errorf("find hotel: %w", err)
	}
	return fromDoc(doc), nil
}

func (r *Repo) FindMany(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.findHotels(ctx, buildFilter(f), opts)
}

func (r *Repo) Paginate(ctx context.Context, f domain.HotelFilter, p domain.PageRequest) (domain.HotelPage, error) {
	filter := buildFilter(f)

	field, ok := sortFields[p.Sort]
	if !ok {
		field = sortFields[domain.SortCreatedAt]
	}
	dir := 1
	if p.Desc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(p.Offset())).
		SetLimit(int64(p.Limit))

	var (
		total int64
		items []domain.Hotel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.hotels.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count hotels: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = r.findHotels(gctx, filter, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.HotelPage{}, err
	}
	return domain.NewHotelPage(items, total, p), nil
}

func (r *Repo) ResolveTypes(ctx context.Context, ids []string) (map[string]domain.HotelType, error) {
	out := make(map[string]domain.HotelType, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}
	ts, err := r.findTypes(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
	if err != nil {
		return nil, err
	}
	for _, t := range ts {
		out[t.ID] = t
	}
	return out, nil
}

func (r *Repo) ListTypes(ctx context.Context) ([]domain.HotelType, error) {
	return r.findTypes(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// buildFilter renders the predicate. Ids that are not valid ObjectIDs can
// never match, so an IDs/TypeIn list made only of them matches nothing.
func buildFilter(f domain.HotelFilter) bson.M {
	filter := bson.M{}

	idCond := bson.M{}
	if len(f.IDs) > 0 {
		idCond["$in"] = objectIDs(f.IDs)
	}
	if f.ExcludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(f.ExcludeID); err == nil {
			idCond["$ne"] = oid
		}
	}
	if len(idCond) > 0 {
		filter["_id"] = idCond
	}

	nameCond := bson.M{}
	if f.Name != "" {
		nameCond["$eq"] = f.Name
	}
	if f.NameContains != "" {
		nameCond["$regex"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.NameContains), Options: "i"}
	}
	if len(nameCond) > 0 {
		filter["hotelName"] = nameCond
	}

	if len(f.TypeIn) > 0 {
		filter["hotelType"] = bson.M{"$in": objectIDs(f.TypeIn)}
	}
	return filter
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func (r *Repo) findHotels(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Hotel, error) {
	cur, err := r.hotels.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find hotels: %w", err)
	}
	var docs []hotelDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode hotels: %w", err)
	}
	out := make([]domain.Hotel, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}

func (r *Repo) findTypes(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.HotelType, error) {
	cur, err := r.types.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find hotel types: %w", err)
	}
	var docs []typeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode hotel types: %w", err)
	}
	out := make([]domain.HotelType, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.HotelType{
			ID:          d.ID.Hex(),
			Name:        d.Name,
			Description: d.Description,
			CreatedAt:   d.CreatedAt,
		})
	}
	return out, nil
}

func toDoc(h domain.Hotel) (hotelDoc, error) {
	typeID, err := primitive.ObjectIDFromHex(h.TypeID)
	if err != nil {
		return hotelDoc{}, fmt.Errorf("hotel type id %q: %w", h.TypeID, err)
	}
	return hotelDoc{
		Name:   h.Name,
		TypeID: typeID,
		Address: addressDoc{
			Province:      h.Address.Province,
			District:      h.Address.District,
			Ward:          h.Address.Ward,
			StreetAddress: h.Address.StreetAddress,
		},
		Slug:        h.Slug,
		Image:       imageDoc{Path: h.Image.Path},
		Ranking:     h.Ranking,
		Description: h.Description,
	}, nil
}

func fromDoc(d hotelDoc) domain.Hotel {
	return domain.Hotel{
		ID:     d.ID.Hex(),
		Name:   d.Name,
		TypeID: d.TypeID.Hex(),
		Address: domain.Address{
			Province:      d.Address.Province,
			District:      d.Address.District,
			Ward:          d.Address.Ward,
			StreetAddress: d.Address.StreetAddress,
		},
		Slug:        d.Slug,
		Image:       domain.Image{Path: d.Image.Path},
		Ranking:     d.Ranking,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func mapErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateName
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Mongo stores milliseconds; truncate so returned records equal stored ones.
func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
