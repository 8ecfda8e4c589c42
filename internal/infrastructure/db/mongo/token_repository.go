package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

const collectionRefreshTokens = "refresh_tokens"

// TokenRepository is the refresh token ledger. Documents are keyed by the
// SHA-256 digest of the signed token; the raw token is never stored.
type TokenRepository struct {
	client *mongo.Client
	col    *mongo.Collection
	now    func() time.Time
}

func NewTokenRepository(client *mongo.Client, db *mongo.Database) *TokenRepository {
	return &TokenRepository{
		client: client,
		col:    db.Collection(collectionRefreshTokens),
		now:    time.Now,
	}
}

type refreshTokenDoc struct {
	TokenHash string    `bson:"token_hash"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	IsRevoked bool      `bson:"is_revoked"`
	CreatedAt time.Time `bson:"created_at"`
}

func toTokenDoc(t *domain.RefreshToken) refreshTokenDoc {
	return refreshTokenDoc{
		TokenHash: t.TokenHash,
		UserID:    t.UserID,
		ExpiresAt: t.ExpiresAt,
		IsRevoked: t.IsRevoked,
		CreatedAt: t.CreatedAt,
	}
}

// activeFilter matches a row that may still be redeemed.
func (r *TokenRepository) activeFilter(hash string) bson.M {
	return bson.M{
		"token_hash": hash,
		"is_revoked": false,
		"expires_at": bson.M{"$gt": r.now().UTC()},
	}
}

func (r *TokenRepository) Store(ctx context.Context, t *domain.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toTokenDoc(t)); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindActive(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc refreshTokenDoc
	if err := r.col.FindOne(ctx, r.activeFilter(hash)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &domain.RefreshToken{
		TokenHash: doc.TokenHash,
		UserID:    doc.UserID,
		ExpiresAt: doc.ExpiresAt,
		IsRevoked: doc.IsRevoked,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (r *TokenRepository) Revoke(ctx context.Context, userID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"token_hash": hash, "user_id": userID},
		bson.M{"$set": bson.M{"is_revoked": true}},
	)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_revoked": false},
		bson.M{"$set": bson.M{"is_revoked": true}},
	)
	if err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

// Rotate flips the old row to revoked with a conditional update and inserts
// next in the same transaction. Concurrent rotations of one token conflict on
// the old document, so at most one of them commits.
func (r *TokenRepository) Rotate(ctx context.Context, oldHash string, next *domain.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.col.UpdateOne(sc,
			r.activeFilter(oldHash),
			bson.M{"$set": bson.M{"is_revoked": true}},
		)
		if err != nil {
			return nil, fmt.Errorf("revoke old refresh token: %w", err)
		}
		if res.ModifiedCount == 0 {
			return nil, domain.ErrTokenNotFound
		}
		if _, err := r.col.InsertOne(sc, toTokenDoc(next)); err != nil {
			return nil, fmt.Errorf("insert rotated refresh token: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		if isWriteConflict(err) {
			return domain.ErrTokenNotFound
		}
		return err
	}
	return nil
}

// errCodeWriteConflict is the server's WriteConflict code.
const errCodeWriteConflict = 112

// isWriteConflict reports a WriteConflict that outlived WithTransaction's
// retries, meaning a concurrent rotation of the same token committed first.
// Other errors labelled TransientTransactionError (network, failover) are
// infrastructure failures and must not read as a reused token.
func isWriteConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(errCodeWriteConflict)
}

// EnsureIndexes creates the unique hash index, the per-user index and the TTL
// index that purges expired rows.
func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
