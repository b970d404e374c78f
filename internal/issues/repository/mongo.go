package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/issuetracker/issue-tracker/internal/issues/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	projectsCollection = "projects"
	issuesCollection   = "issues"
)

type projectDoc struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

type issueDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID  primitive.ObjectID `bson:"projectId"`
	IssueTitle string             `bson:"issue_title"`
	IssueText  string             `bson:"issue_text"`
	CreatedBy  string             `bson:"created_by"`
	AssignedTo string             `bson:"assigned_to"`
	StatusText string             `bson:"status_text"`
	Open       bool               `bson:"open"`
	CreatedOn  time.Time          `bson:"created_on"`
	UpdatedOn  time.Time          `bson:"updated_on"`
}

func (d issueDoc) toDomain() domain.Issue {
	return domain.Issue{
		ID:         d.ID.Hex(),
		ProjectID:  d.ProjectID.Hex(),
		IssueTitle: d.IssueTitle,
		IssueText:  d.IssueText,
		CreatedBy:  d.CreatedBy,
		AssignedTo: d.AssignedTo,
		StatusText: d.StatusText,
		Open:       d.Open,
		CreatedOn:  d.CreatedOn.UTC(),
		UpdatedOn:  d.UpdatedOn.UTC(),
	}
}

// MongoStore persists projects and issues in two MongoDB collections.
type MongoStore struct {
	client   *mongo.Client
	projects *mongo.Collection
	issues   *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		projects: db.Collection(projectsCollection),
		issues:   db.Collection(issuesCollection),
	}
}

// firstProjectOptions picks the oldest project when concurrent creates left
// duplicates for one name.
func firstProjectOptions() *options.FindOneOptions {
	return options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
}

func (m *MongoStore) FindProjectByName(ctx context.Context, name string) (*domain.Project, error) {
	var doc projectDoc
	err := m.projects.FindOne(ctx, bson.M{"name": name}, firstProjectOptions()).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &domain.Project{ID: doc.ID.Hex(), Name: doc.Name}, nil
}

func (m *MongoStore) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	doc := projectDoc{ID: primitive.NewObjectID(), Name: name}
	if _, err := m.projects.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &domain.Project{ID: doc.ID.Hex(), Name: doc.Name}, nil
}

func (m *MongoStore) FindIssues(ctx context.Context, projectID string, filter domain.IssueFilter) ([]domain.Issue, error) {
	q, err := mongoFilter(projectID, filter)
	if err != nil {
		return nil, err
	}

	cur, err := m.issues.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.Issue, 0)
	for cur.Next(ctx) {
		var doc issueDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode issue: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return out, nil
}

func (m *MongoStore) CreateIssue(ctx context.Context, issue *domain.Issue) (*domain.Issue, error) {
	if issue.ID == "" {
		issue.ID = domain.NewID()
	}
	oid, err := domain.ParseID(issue.ID)
	if err != nil {
		return nil, err
	}
	pid, err := domain.ParseID(issue.ProjectID)
	if err != nil {
		return nil, err
	}

	doc := issueDoc{
		ID:         oid,
		ProjectID:  pid,
		IssueTitle: issue.IssueTitle,
		IssueText:  issue.IssueText,
		CreatedBy:  issue.CreatedBy,
		AssignedTo: issue.AssignedTo,
		StatusText: issue.StatusText,
		Open:       issue.Open,
		CreatedOn:  issue.CreatedOn,
		UpdatedOn:  issue.UpdatedOn,
	}
	if _, err := m.issues.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}

	saved := *issue
	return &saved, nil
}

func (m *MongoStore) UpdateIssueByID(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.IssueTitle != nil {
		set["issue_title"] = *patch.IssueTitle
	}
	if patch.IssueText != nil {
		set["issue_text"] = *patch.IssueText
	}
	if patch.CreatedBy != nil {
		set["created_by"] = *patch.CreatedBy
	}
	if patch.AssignedTo != nil {
		set["assigned_to"] = *patch.AssignedTo
	}
	if patch.StatusText != nil {
		set["status_text"] = *patch.StatusText
	}
	if patch.Open != nil {
		set["open"] = *patch.Open
	}
	if !patch.UpdatedOn.IsZero() {
		set["updated_on"] = patch.UpdatedOn
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc issueDoc
	err = m.issues.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}
	issue := doc.toDomain()
	return &issue, nil
}

func (m *MongoStore) DeleteIssueByID(ctx context.Context, id string) (*domain.Issue, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}

	var doc issueDoc
	err = m.issues.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete issue: %w", err)
	}
	issue := doc.toDomain()
	return &issue, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// mongoFilter translates the typed filter into a bson query scoped to the project.
func mongoFilter(projectID string, f domain.IssueFilter) (bson.M, error) {
	pid, err := domain.ParseID(projectID)
	if err != nil {
		return nil, err
	}

	q := bson.M{"projectId": pid}
	if f.ID != nil {
		oid, err := domain.ParseID(*f.ID)
		if err != nil {
			return nil, err
		}
		q["_id"] = oid
	}
	if f.IssueTitle != nil {
		q["issue_title"] = *f.IssueTitle
	}
	if f.IssueText != nil {
		q["issue_text"] = *f.IssueText
	}
	if f.CreatedBy != nil {
		q["created_by"] = *f.CreatedBy
	}
	if f.AssignedTo != nil {
		q["assigned_to"] = *f.AssignedTo
	}
	if f.StatusText != nil {
		q["status_text"] = *f.StatusText
	}
	if f.Open != nil {
		q["open"] = *f.Open
	}
	if f.CreatedOn != nil {
		q["created_on"] = *f.CreatedOn
	}
	if f.UpdatedOn != nil {
		q["updated_on"] = *f.UpdatedOn
	}
	return q, nil
}
