package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"authapi/config"
	"authapi/pkg/helpers"
)

// Container carries the process-wide singletons built once in main and
// passed down explicitly; there is no package-level ambient state.
// Optional collaborators (Redis, ES, GCS, Pub) may be nil when not
// configured; consumers must tolerate that.
type Container struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	PGPool *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	ES     *elasticsearch.Client
	JWT    *helpers.JWTManager
	Pub    *helpers.RabbitPublisher
}
