package services

import (
	"context"
	"errors"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeGroupStore keeps groups in a map and mimics the repository's error
// behavior (not-found errors, atomic-ish member and task updates).
type fakeGroupStore struct {
	groups map[primitive.ObjectID]*models.Group

	failUpdateTaskFlags bool
	taskFlagWrites      int
}

func newFakeGroupStore(groups ...*models.Group) *fakeGroupStore {
	s := &fakeGroupStore{groups: make(map[primitive.ObjectID]*models.Group)}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return s
}

func (s *fakeGroupStore) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	group.ID = primitive.NewObjectID()
	s.groups[group.ID] = group
	return group, nil
}

func (s *fakeGroupStore) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	group, ok := s.groups[id]
	if !ok {
		return nil, apperrors.NotFoundf("group %s", id.Hex())
	}
	copied := *group
	copied.Members = append([]primitive.ObjectID(nil), group.Members...)
	copied.Tasks = append([]models.Task(nil), group.Tasks...)
	return &copied, nil
}

func (s *fakeGroupStore) UpdateGroupFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	group, ok := s.groups[id]
	if !ok {
		return apperrors.NotFoundf("group %s", id.Hex())
	}
	if name, ok := fields["name"].(string); ok {
		group.Name = name
	}
	if desc, ok := fields["description"].(string); ok {
		group.Description = desc
	}
	if details, ok := fields["project_details"].(models.ProjectDetails); ok {
		group.ProjectDetails = details
	}
	return nil
}

func (s *fakeGroupStore) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := s.groups[id]; !ok {
		return apperrors.NotFoundf("group %s", id.Hex())
	}
	delete(s.groups, id)
	return nil
}

func (s *fakeGroupStore) AddMember(ctx context.Context, groupID, memberID primitive.ObjectID) error {
	group, ok := s.groups[groupID]
	if !ok {
		return apperrors.NotFoundf("group %s", groupID.Hex())
	}
	if !group.HasMember(memberID) {
		group.Members = append(group.Members, memberID)
	}
	return nil
}

func (s *fakeGroupStore) RemoveMember(ctx context.Context, groupID, memberID primitive.ObjectID) error {
	group, ok := s.groups[groupID]
	if !ok {
		return apperrors.NotFoundf("group %s", groupID.Hex())
	}
	kept := group.Members[:0]
	for _, m := range group.Members {
		if m != memberID {
			kept = append(kept, m)
		}
	}
	group.Members = kept
	return nil
}

func (s *fakeGroupStore) AppendTask(ctx context.Context, groupID primitive.ObjectID, task models.Task) error {
	group, ok := s.groups[groupID]
	if !ok {
		return apperrors.NotFoundf("group %s", groupID.Hex())
	}
	group.Tasks = append(group.Tasks, task)
	return nil
}

func (s *fakeGroupStore) UpdateTaskFlags(ctx context.Context, groupID primitive.ObjectID, taskID string, completed, approved bool) error {
	if s.failUpdateTaskFlags {
		return errors.New("write conflict")
	}
	group, ok := s.groups[groupID]
	if !ok {
		return apperrors.NotFoundf("group %s", groupID.Hex())
	}
	for i := range group.Tasks {
		if group.Tasks[i].ID == taskID {
			group.Tasks[i].Completed = completed
			group.Tasks[i].Approved = approved
			s.taskFlagWrites++
			return nil
		}
	}
	return apperrors.NotFoundf("task %s in group %s", taskID, groupID.Hex())
}

func (s *fakeGroupStore) ListGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	var out []models.Group
	for _, g := range s.groups {
		if g.HasMember(userID) {
			out = append(out, *g)
		}
	}
	return out, nil
}

// fakeRequestStore is an in-memory completion request queue.
type fakeRequestStore struct {
	requests []*models.CompletionRequest
}

func (s *fakeRequestStore) CreateRequest(ctx context.Context, req *models.CompletionRequest) (*models.CompletionRequest, error) {
	req.ID = primitive.NewObjectID()
	req.Status = models.RequestStatusPending
	s.requests = append(s.requests, req)
	return req, nil
}

func (s *fakeRequestStore) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.CompletionRequest, error) {
	for _, r := range s.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apperrors.NotFoundf("completion request %s", id.Hex())
}

func (s *fakeRequestStore) FindPending(ctx context.Context, groupID primitive.ObjectID, taskID string, memberID primitive.ObjectID) (*models.CompletionRequest, error) {
	for _, r := range s.requests {
		if r.GroupID == groupID && r.TaskID == taskID && r.MemberID == memberID && r.Status == models.RequestStatusPending {
			return r, nil
		}
	}
	return nil, apperrors.NotFoundf("pending request for task %s", taskID)
}

func (s *fakeRequestStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	for _, r := range s.requests {
		if r.ID == id && r.Status == models.RequestStatusPending {
			r.Status = status
			return nil
		}
	}
	return apperrors.NotFoundf("pending request %s", id.Hex())
}

func (s *fakeRequestStore) ListByGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.CompletionRequest, error) {
	var out []models.CompletionRequest
	for _, r := range s.requests {
		if r.GroupID == groupID && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRequestStore) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.CompletionRequest, error) {
	var out []models.CompletionRequest
	for _, r := range s.requests {
		if r.MemberID == memberID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// sentNotification captures one Notifier.Send call.
type sentNotification struct {
	UserID  primitive.ObjectID
	Type    string
	Title   string
	Message string
	GroupID *primitive.ObjectID
	TaskID  string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (n *fakeNotifier) Send(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, groupID *primitive.ObjectID, taskID string) error {
	n.sent = append(n.sent, sentNotification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		GroupID: groupID,
		TaskID:  taskID,
	})
	return nil
}

func (n *fakeNotifier) sentTo(userID primitive.ObjectID, notifType string) int {
	count := 0
	for _, s := range n.sent {
		if s.UserID == userID && s.Type == notifType {
			count++
		}
	}
	return count
}

// fakeProgressStore mirrors the processed-set idempotency of the real
// repository: a request id credits at most once.
type fakeProgressStore struct {
	counters  map[primitive.ObjectID]int64
	processed map[primitive.ObjectID]map[primitive.ObjectID]struct{}
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{
		counters:  make(map[primitive.ObjectID]int64),
		processed: make(map[primitive.ObjectID]map[primitive.ObjectID]struct{}),
	}
}

func (s *fakeProgressStore) CreditApproval(ctx context.Context, memberID, requestID primitive.ObjectID) (bool, error) {
	seen, ok := s.processed[memberID]
	if !ok {
		seen = make(map[primitive.ObjectID]struct{})
		s.processed[memberID] = seen
	}
	if _, done := seen[requestID]; done {
		return false, nil
	}
	seen[requestID] = struct{}{}
	s.counters[memberID]++
	return true, nil
}

func (s *fakeProgressStore) GetProgress(ctx context.Context, userID primitive.ObjectID) (*models.Progress, error) {
	return &models.Progress{
		UserID:         userID,
		CompletedTasks: s.counters[userID],
	}, nil
}

func (s *fakeProgressStore) IsCredited(ctx context.Context, memberID, requestID primitive.ObjectID) (bool, error) {
	_, done := s.processed[memberID][requestID]
	return done, nil
}
