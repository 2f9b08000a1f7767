package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adanyl0v/go-task-assign/internal/models"
)

type taskDocument struct {
	ID          string               `bson:"_id"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Status      string               `bson:"status"`
	Deadline    time.Time            `bson:"deadline"`
	AssignedTo  string               `bson:"assignedTo"`
	CreatedBy   string               `bson:"createdBy"`
	Attachments []attachmentDocument `bson:"attachments"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type attachmentDocument struct {
	ID         string    `bson:"_id"`
	Filename   string    `bson:"filename"`
	StorageKey string    `bson:"storageKey"`
	UploadedAt time.Time `bson:"uploadedAt"`
}

func newTaskDocument(task *models.Task) taskDocument {
	doc := taskDocument{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Deadline:    task.Deadline,
		AssignedTo:  task.AssignedTo,
		CreatedBy:   task.CreatedBy,
		Attachments: newAttachmentDocuments(task.Attachments),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	return doc
}

func newAttachmentDocuments(attachments []models.Attachment) []attachmentDocument {
	docs := make([]attachmentDocument, len(attachments))
	for i, a := range attachments {
		docs[i] = attachmentDocument{
			ID:         a.ID,
			Filename:   a.Filename,
			StorageKey: a.StorageKey,
			UploadedAt: a.UploadedAt,
		}
	}
	return docs
}

func (d *taskDocument) toModel() *models.Task {
	task := &models.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      models.Status(d.Status),
		Deadline:    d.Deadline.UTC(),
		AssignedTo:  d.AssignedTo,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	for _, a := range d.Attachments {
		task.Attachments = append(task.Attachments, models.Attachment{
			ID:         a.ID,
			Filename:   a.Filename,
			StorageKey: a.StorageKey,
			UploadedAt: a.UploadedAt.UTC(),
		})
	}
	return task
}

type MongoTaskRepository struct {
	logger     zerolog.Logger
	collection *mongo.Collection
}

var _ TaskRepository = (*MongoTaskRepository)(nil)

func NewMongoTaskRepository(logger zerolog.Logger, db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{
		logger:     logger,
		collection: db.Collection("tasks"),
	}
}

// EnsureIndexes creates the indexes used by scoped listing.
func (r *MongoTaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "attachments.storageKey", Value: 1}}},
	})
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to create task indexes")
		return err
	}
	return nil
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	err := checkConstraints(task)
	if err != nil {
		return nil, err
	}

	_, err = r.collection.InsertOne(ctx, newTaskDocument(task))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrConstraint
		}
		r.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to insert task")
		return nil, err
	}

	r.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")
	return task.Clone(), nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var doc taskDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		r.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to find task")
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoTaskRepository) FindMany(ctx context.Context, params FindManyParams) ([]*models.Task, int64, error) {
	params = params.normalize()

	f, err := mongoFilter(params.Filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, f)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to count tasks")
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(mongoSort(params.Sort)).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	cursor, err := r.collection.Find(ctx, f, opts)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to find tasks")
		return nil, 0, err
	}

	var docs []taskDocument
	err = cursor.All(ctx, &docs)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to decode tasks")
		return nil, 0, err
	}

	tasks := make([]*models.Task, len(docs))
	for i := range docs {
		tasks[i] = docs[i].toModel()
	}
	return tasks, total, nil
}

func (r *MongoTaskRepository) Update(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	set := bson.M{"updatedAt": patch.UpdatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Deadline != nil {
		set["deadline"] = *patch.Deadline
	}
	if patch.AssignedTo != nil {
		set["assignedTo"] = *patch.AssignedTo
	}

	f := bson.M{"_id": id}
	update := bson.M{"$set": set}
	if len(patch.AppendAttachments) > 0 {
		update["$push"] = bson.M{"attachments": bson.M{
			"$each": newAttachmentDocuments(patch.AppendAttachments),
		}}
	}
	if patch.RemoveAttachmentID != "" {
		// $push and $pull on the same array conflict in one update
		if len(patch.AppendAttachments) > 0 {
			return nil, errors.New("cannot append and remove attachments in one update")
		}
		f["attachments._id"] = patch.RemoveAttachmentID
		update["$pull"] = bson.M{"attachments": bson.M{"_id": patch.RemoveAttachmentID}}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err := r.collection.FindOneAndUpdate(ctx, f, update, opts).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Error().
				Err(err).
				Str("task_id", id).
				Msg("failed to update task")
			return nil, err
		}
		if patch.RemoveAttachmentID == "" {
			return nil, ErrNotFound
		}
		n, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return nil, countErr
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrAttachmentNotFound
	}

	return doc.toModel(), nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepository) ListStorageKeys(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "attachments.storageKey", bson.M{})
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to list storage keys")
		return nil, err
	}

	keys := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys, nil
}

type MongoUserDirectory struct {
	logger     zerolog.Logger
	collection *mongo.Collection
}

var _ UserDirectory = (*MongoUserDirectory)(nil)

func NewMongoUserDirectory(logger zerolog.Logger, db *mongo.Database) *MongoUserDirectory {
	return &MongoUserDirectory{
		logger:     logger,
		collection: db.Collection("users"),
	}
}

type userDocument struct {
	ID    any    `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

// ResolveUsers matches ids stored either as strings or as ObjectIDs.
func (d *MongoUserDirectory) ResolveUsers(ctx context.Context, ids []string) (map[string]models.UserRef, error) {
	refs := make(map[string]models.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	in := make(bson.A, 0, 2*len(ids))
	for _, id := range ids {
		in = append(in, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			in = append(in, oid)
		}
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1})
	cursor, err := d.collection.Find(ctx, bson.M{"_id": bson.M{"$in": in}}, opts)
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to find users")
		return nil, err
	}

	var docs []userDocument
	err = cursor.All(ctx, &docs)
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to decode users")
		return nil, err
	}

	for _, doc := range docs {
		id, ok := userDocumentID(doc.ID)
		if !ok {
			continue
		}
		refs[id] = models.UserRef{ID: id, Name: doc.Name, Email: doc.Email}
	}
	return refs, nil
}

func (d *MongoUserDirectory) ListUsers(ctx context.Context, offset, limit int) ([]models.UserRef, int64, error) {
	offset, limit = normalizeWindow(offset, limit)

	total, err := d.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to count users")
		return nil, 0, err
	}

	opts := options.Find().
		SetProjection(bson.M{"name": 1, "email": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := d.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to find users")
		return nil, 0, err
	}

	var docs []userDocument
	err = cursor.All(ctx, &docs)
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to decode users")
		return nil, 0, err
	}

	users := make([]models.UserRef, 0, len(docs))
	for _, doc := range docs {
		id, ok := userDocumentID(doc.ID)
		if !ok {
			continue
		}
		users = append(users, models.UserRef{ID: id, Name: doc.Name, Email: doc.Email})
	}
	return users, total, nil
}

func userDocumentID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, true
	case primitive.ObjectID:
		return id.Hex(), true
	default:
		return "", false
	}
}
