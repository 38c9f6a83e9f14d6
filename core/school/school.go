package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/core"
)

var ErrNotFound = errors.New("school not found")

// OrderingFields maps the accepted `ordering` query values to DB columns.
var OrderingFields = map[string]string{
	"name":      "name",
	"plan":      "plan",
	"createdAt": "created_at",
}

var DefaultOrdering = core.DBOrdering{Field: "name", Ascending: true}

type Plan string

const (
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// features
const (
	FeatureAttendance = "attendance"
	FeatureTimetable  = "timetable"
	FeatureExams      = "exams"
	FeatureFees       = "fees"
	FeatureReports    = "reports"
	FeatureSMS        = "sms"
)

var planFeatures = map[Plan][]string{
	PlanFree:     {FeatureAttendance},
	PlanStandard: {FeatureAttendance, FeatureTimetable, FeatureExams, FeatureFees},
	PlanPremium:  {FeatureAttendance, FeatureTimetable, FeatureExams, FeatureFees, FeatureReports, FeatureSMS},
}

func (p Plan) Valid() bool {
	_, ok := planFeatures[p]
	return ok
}

// Features lists what the plan includes.
func (p Plan) Features() []string {
	return append([]string(nil), planFeatures[p]...)
}

func (p Plan) Includes(feature string) bool {
	for _, f := range planFeatures[p] {
		if f == feature {
			return true
		}
	}
	return false
}

// School is a tenant.
type School struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Plan               Plan      `json:"plan"`
	IsActive           bool      `json:"isActive"`
	SubscriptionEndsAt time.Time `json:"subscriptionEndsAt"` // UTC; zero: no end
	CreatedAt          time.Time `json:"createdAt"`          // UTC
}

// HasFeature reports whether feature is enabled for the school at t.
// An inactive school or one whose subscription has ended has no features.
func (s School) HasFeature(feature string, t time.Time) bool {
	if !s.IsActive {
		return false
	}
	if !s.SubscriptionEndsAt.IsZero() && !t.Before(s.SubscriptionEndsAt) {
		return false
	}
	return s.Plan.Includes(feature)
}

type Repository interface {
	CreateSchool(ctx context.Context, sch School) (School, error)
	GetSchoolByID(ctx context.Context, id string) (School, error)
	ListSchools(ctx context.Context, ordering core.DBOrdering) ([]School, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, name string, plan Plan) (School, error) {
	if name == "" {
		return School{}, errors.New("school name is required")
	}
	if !plan.Valid() {
		return School{}, errors.Errorf("unknown plan %q", plan)
	}
	return svc.repo.CreateSchool(ctx, School{
		Name:      name,
		Plan:      plan,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) List(ctx context.Context, ordering core.DBOrdering) ([]School, error) {
	return svc.repo.ListSchools(ctx, ordering)
}

// HasFeature reports whether the school schoolID is entitled to feature at t.
// An unknown school is not entitled to anything.
func (svc *Service) HasFeature(ctx context.Context, schoolID, feature string, t time.Time) (bool, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, schoolID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "finding school")
	}
	return sch.HasFeature(feature, t), nil
}
