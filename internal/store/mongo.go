package store

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"AUTHGATE/internal/config"
	"AUTHGATE/internal/models"
)

const (
	usersCollection = "users"
	emailIndexName  = "users_email_key"
)

// mongoUser is the document shape of a user in the users collection.
// Accounts created before password_hash existed carry the bcrypt digest
// in password.
type mongoUser struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Name           string        `bson:"name"`
	Email          string        `bson:"email"`
	PasswordHash   string        `bson:"password_hash"`
	LegacyPassword string        `bson:"password,omitempty"`
	CreatedAt      time.Time     `bson:"created_at"`
}

func (d *mongoUser) toModel() *models.User {
	hash := d.PasswordHash
	if hash == "" {
		hash = d.LegacyPassword
	}
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: hash,
		CreatedAt:    d.CreatedAt,
	}
}

// userCollection is the part of the users collection the store reads and
// writes. findOne returns mongo.ErrNoDocuments when nothing matches.
type userCollection interface {
	findOne(ctx context.Context, filter bson.D) (*mongoUser, error)
	insertOne(ctx context.Context, doc *mongoUser) error
}

type driverCollection struct {
	coll *mongo.Collection
}

func (c driverCollection) findOne(ctx context.Context, filter bson.D) (*mongoUser, error) {
	var doc mongoUser
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c driverCollection) insertOne(ctx context.Context, doc *mongoUser) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return err
}

// MongoStore implements UserStore on a MongoDB collection.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	users   userCollection
	timeout time.Duration
}

// OpenMongo connects to MongoDB, verifies connectivity and ensures the
// unique email index exists.
func OpenMongo(ctx context.Context, cfg config.DatabaseConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URL).SetAppName("authgate")
	if cfg.MaxConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxConns))
	}
	if cfg.ConnTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnTimeout)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").Wrap(err)
	}

	coll := client.Database(cfg.MongoDatabase).Collection(usersCollection)
	s := &MongoStore{
		client:  client,
		coll:    coll,
		users:   driverCollection{coll: coll},
		timeout: cfg.QueryTimeout,
	}

	pingCtx, cancel := withTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, oops.Code("STORE_PING_FAILED").Wrap(err)
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the unique index on email.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return oops.Code("STORE_MIGRATE_FAILED").
			With("operation", "create email index").
			Wrap(err)
	}
	return nil
}

// FindByEmail retrieves a user by exact email.
func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := s.users.findOne(ctx, bson.D{{Key: "email", Value: email}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "find user by email").
			With("email", email).
			Wrap(err)
	}
	return doc.toModel(), nil
}

// FindByID retrieves a user by ObjectID hex. Malformed ids never match.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(ErrNotFound)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := s.users.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "find user by id").
			With("id", id).
			Wrap(err)
	}
	return doc.toModel(), nil
}

// Create inserts a new user document.
func (s *MongoStore) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	doc := &mongoUser{
		ID:           bson.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := s.users.insertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, oops.Code("USER_DUPLICATE_EMAIL").
				With("email", email).
				Wrap(ErrDuplicateEmail)
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", email).
			Wrap(err)
	}
	return doc.toModel(), nil
}

// Ping checks connectivity to the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
