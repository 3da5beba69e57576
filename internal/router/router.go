package router

import (
	"net/http"
	"time"

	_ "dog-walk-service/docs"
	mem "dog-walk-service/internal/adapters/storage/memory"
	"dog-walk-service/internal/adapters/storage/sqlstore"
	"dog-walk-service/internal/domain/dogs"
	"dog-walk-service/internal/domain/users"
	"dog-walk-service/internal/domain/walks"
	"dog-walk-service/internal/middleware"
	"dog-walk-service/internal/platform/logger"
	"dog-walk-service/internal/platform/metrics"
	"dog-walk-service/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Tokens       auth.TokenIssuer  // puede ser nil (modo dev: login no emite token)

	// Opcional: si viene, usa SQL (Postgres o SQLite). Si no, in-memory.
	Store *sqlstore.Store

	Logger logger.Logger

	// Límite para register/login por IP. 0 = sin límite.
	LoginRatePerSec float64
	LoginBurst      int

	// Done corta la limpieza periódica del rate limiter. nil = sin limpieza.
	Done <-chan struct{}
}

// Services agrupa los servicios por módulo (main los usa también para el seed).
type Services struct {
	Users *users.Service
	Dogs  *dogs.Service
	Walks *walks.Service
}

func NewServices(opts Options) Services {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	var (
		userRepo  users.Repository
		dogRepo   dogs.Repository
		walkStore walks.Store
	)

	if opts.Store != nil {
		userRepo = sqlstore.NewUserRepo(opts.Store)
		dogRepo = sqlstore.NewDogRepo(opts.Store)
		walkStore = sqlstore.NewWalkStore(opts.Store)
	} else {
		// Repos in-memory sobre un mismo estado compartido
		db := mem.New()
		userRepo = mem.NewUserRepo(db)
		dogRepo = mem.NewDogRepo(db)
		walkStore = mem.NewWalkStore(db)
	}

	dogsSvc := dogs.NewService(dogRepo)
	return Services{
		Users: users.NewService(userRepo),
		Dogs:  dogsSvc,
		// dogsSvc expone OwnerOf; walks no importa dogs
		Walks: walks.NewService(walkStore, dogsSvc, log.With(map[string]any{"module": "walks"})),
	}
}

func NewRouter(opts Options) http.Handler {
	return Handler(NewServices(opts), opts)
}

// Handler monta middlewares y rutas sobre servicios ya construidos.
func Handler(svcs Services, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	limiter := middleware.NewRateLimiter(opts.LoginRatePerSec, opts.LoginBurst, log)
	if opts.Done != nil {
		limiter.StartCleanup(5*time.Minute, opts.Done)
	}
	authLimit := limiter.Handler

	// Rutas por módulo
	users.RegisterRoutes(r, svcs.Users, opts.Tokens, authLimit, log)
	dogs.RegisterRoutes(r, svcs.Dogs, log)
	walks.RegisterRoutes(r, svcs.Walks, log)

	return r
}
