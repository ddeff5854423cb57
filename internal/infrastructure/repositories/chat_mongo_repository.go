package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/you/companionsvc/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoChatMessage struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ChatID          string             `bson:"chat_id"`
	UserID          string             `bson:"user_id"`
	BotID           string             `bson:"bot_id"`
	Message         string             `bson:"message"`
	Response        string             `bson:"response"`
	MessageID       string             `bson:"message_id,omitempty"`
	IsSystemMessage bool               `bson:"is_system_message"`
	Timestamp       time.Time          `bson:"timestamp"`
}

// ChatMongoRepositoryImpl implements domain.ChatRepository on a MongoDB collection
type ChatMongoRepositoryImpl struct {
	coll *mongo.Collection
}

// NewChatMongoRepository creates a chat log stored in the "chats" collection of db
func NewChatMongoRepository(db *mongo.Database) *ChatMongoRepositoryImpl {
	return &ChatMongoRepositoryImpl{coll: db.Collection("chats")}
}

// EnsureIndexes creates the conversation lookup indexes
func (r *ChatMongoRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "message_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create chat indexes: %w", err)
	}
	return nil
}

// Append implements domain.ChatRepository
func (r *ChatMongoRepositoryImpl) Append(ctx context.Context, msg *domain.ChatMessage) error {
	oid, err := primitive.ObjectIDFromHex(msg.ID)
	if err != nil {
		oid = primitive.NewObjectID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	doc := mongoChatMessage{
		ID:              oid,
		ChatID:          msg.ChatID,
		UserID:          msg.UserID,
		BotID:           msg.BotID,
		Message:         msg.Message,
		Response:        msg.Response,
		MessageID:       msg.MessageID,
		IsSystemMessage: msg.IsSystemMessage,
		Timestamp:       msg.Timestamp,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	msg.ID = oid.Hex()
	return nil
}

// History implements domain.ChatRepository
func (r *ChatMongoRepositoryImpl) History(ctx context.Context, chatID string) ([]*domain.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"chat_id": chatID}, opts, false)
}

// Recent implements domain.ChatRepository
func (r *ChatMongoRepositoryImpl) Recent(ctx context.Context, chatID string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		return []*domain.ChatMessage{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"chat_id": chatID}, opts, true)
}

// FindByMessageID implements domain.ChatRepository
func (r *ChatMongoRepositoryImpl) FindByMessageID(ctx context.Context, chatID, messageID string) (*domain.ChatMessage, error) {
	var doc mongoChatMessage
	err := r.coll.FindOne(ctx, bson.M{"chat_id": chatID, "message_id": messageID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return mongoToDomain(&doc), nil
}

// DeleteConversation implements domain.ChatRepository
func (r *ChatMongoRepositoryImpl) DeleteConversation(ctx context.Context, chatID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"chat_id": chatID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ChatMongoRepositoryImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions, reverse bool) ([]*domain.ChatMessage, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoChatMessage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*domain.ChatMessage, 0, len(docs))
	for i := range docs {
		out = append(out, mongoToDomain(&docs[i]))
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func mongoToDomain(doc *mongoChatMessage) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:              doc.ID.Hex(),
		ChatID:          doc.ChatID,
		UserID:          doc.UserID,
		BotID:           doc.BotID,
		Message:         doc.Message,
		Response:        doc.Response,
		MessageID:       doc.MessageID,
		IsSystemMessage: doc.IsSystemMessage,
		Timestamp:       doc.Timestamp.UTC(),
	}
}

var _ domain.ChatRepository = (*ChatMongoRepositoryImpl)(nil)
