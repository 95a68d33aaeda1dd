package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"authapi/internal/domain/entity"
	repo "authapi/internal/domain/repository"
	"authapi/pkg/helpers"
	"authapi/pkg/mailer"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password:
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
)

const profileCacheTTL = 10 * time.Minute

func profileKey(userID string) string {
	return "user:profile:" + userID
}

// Service orchestrates the credential lifecycle: registration, login,
// token issuance and profile reads/updates. Redis, Elasticsearch, GCS and
// the mail publisher are optional; a nil client disables that side effect.
type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Pub          *helpers.RabbitPublisher
	GCS          *storage.Client
	GCSBucket    string
	MailEnabled  bool
}

func NewService(repo repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, pub *helpers.RabbitPublisher, gcs *storage.Client, gcsBucket string, mailEnabled bool) *Service {
	return &Service{
		Repo:         repo,
		JWT:          jwt,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Pub:          pub,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		MailEnabled:  mailEnabled,
	}
}

type RegisterInput struct {
	FullName  string
	Email     string
	Password  string
	Gender    entity.Gender
	Phone     string
	BirthDate time.Time
}

// Register validates input, hashes the password once, persists the record
// and issues a token bound to the new id. The store's unique index is
// authoritative for duplicate emails: a race that slips past the pre-check
// still comes back as ErrEmailTaken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, string, error) {
	u := &entity.User{
		FullName:  in.FullName,
		Email:     in.Email,
		Gender:    in.Gender,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, "", err
	}

	if _, err := s.Repo.GetByEmail(ctx, u.Email, false); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, "", err
	}

	if err := u.SetPassword(in.Password); err != nil {
		return nil, "", err
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, _, err := s.JWT.Generate(u.ID)
	if err != nil {
		s.logErr(err, u.ID, "issue token failed")
		return nil, "", err
	}

	s.cacheProfile(ctx, u)
	_ = s.indexUser(ctx, u)
	s.enqueueEmail(ctx, mailer.TemplateWelcome, u)

	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("user registered")
	}
	return u, token, nil
}

// Login verifies email/password and issues a fresh token. Unknown email
// and password mismatch are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Repo.GetByEmail(ctx, email, true)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !u.CheckPassword(password) {
		return nil, "", ErrInvalidCredentials
	}
	token, _, err := s.JWT.Generate(u.ID)
	if err != nil {
		s.logErr(err, u.ID, "issue token failed")
		return nil, "", err
	}
	return u, token, nil
}

// ResolveUser loads the hash-free record for an authenticated subject,
// cache-aside over Redis. PasswordHash never serializes, so the cached
// value is public-safe by construction.
func (s *Service) ResolveUser(ctx context.Context, userID string) (*entity.User, error) {
	if s.Redis != nil {
		var cached entity.User
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, profileKey(userID), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.cacheProfile(ctx, u)
	return u, nil
}

// UpdateProfile applies a partial update: each provided field replaces the
// stored value, absent fields keep it. The whole record is re-validated
// before persisting, including the age invariant and email shape; email
// uniqueness is re-enforced by the store index.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in entity.ProfileChanges) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Apply(in)
	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.cacheProfile(ctx, u)
	_ = s.indexUser(ctx, u)
	s.enqueueEmail(ctx, mailer.TemplateProfileUpdated, u)
	return u, nil
}

// ChangePassword re-hashes only when the caller explicitly supplies a new
// plaintext, after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	withHash, err := s.Repo.GetByEmail(ctx, u.Email, true)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !withHash.CheckPassword(current) {
		return ErrInvalidCredentials
	}
	if err := u.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, u.ID, u.PasswordHash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ListUsers returns every record; the handler projects them public-safe.
func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.List(ctx)
}

// UploadAvatar stores the image in GCS and persists the resulting URL.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, errors.New("avatar storage not configured")
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, id+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}

	u.AvatarURL = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, u)
	_ = s.indexUser(ctx, u)
	return u, nil
}

// SearchUsers performs a multi_match search on full_name and email.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "full_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *Service) cacheProfile(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, profileKey(u.ID), u, profileCacheTTL); err != nil {
		s.logErr(err, u.ID, "profile cache write failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"full_name":  u.FullName,
		"email":      u.Email,
		"gender":     u.Gender,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.logErr(err, u.ID, "es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

func (s *Service) enqueueEmail(ctx context.Context, template string, u *entity.User) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: template,
		Data:     map[string]any{"Name": u.FullName, "Email": u.Email},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.logErr(err, u.ID, "email enqueue failed")
	}
}

func (s *Service) logErr(err error, userID, msg string) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithField("user_id", userID).Warn(msg)
}
