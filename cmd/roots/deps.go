package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ersonp/roots-core/internal/application/handlers"
	"github.com/ersonp/roots-core/internal/domain/ports"
	"github.com/ersonp/roots-core/internal/domain/services"
	s3 "github.com/ersonp/roots-core/internal/infrastructure/blobstore/s3"
	"github.com/ersonp/roots-core/internal/infrastructure/config"
	embedder "github.com/ersonp/roots-core/internal/infrastructure/embedder/openai"
	"github.com/ersonp/roots-core/internal/infrastructure/logging"
	"github.com/ersonp/roots-core/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/roots-core/internal/infrastructure/vectordb/qdrant"
	"github.com/ersonp/roots-core/internal/interfaces/rest"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config        *config.Config
	Trees         *config.TreesConfig
	Logger        *zap.Logger
	People        *handlers.PersonHandler
	Relationships *handlers.RelationshipHandler
	Events        *handlers.EventHandler
	Media         *handlers.MediaHandler
	Sources       *handlers.SourceHandler
	Match         *handlers.MatchHandler
	Import        *handlers.ImportHandler
	Export        *handlers.ExportHandler
}

// RESTHandlers returns the handler set served by the REST router.
func (d *Deps) RESTHandlers() rest.Handlers {
	return rest.Handlers{
		People:        d.People,
		Relationships: d.Relationships,
		Events:        d.Events,
		Media:         d.Media,
		Sources:       d.Sources,
		Match:         d.Match,
		Import:        d.Import,
		Export:        d.Export,
	}
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	writer       *services.Writer
	matchService *services.MatchService
}

// withDeps loads config and builds dependencies, then calls the provided
// function. Person changes made by fn are pushed to the match index before
// returning.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		if d.matchService == nil {
			return fn(&d.Deps)
		}

		pending := newPendingIndex(d.writer)
		defer pending.stop()

		if err := fn(&d.Deps); err != nil {
			return err
		}
		pending.flush(ctx, d.matchService)
		return nil
	})
}

// withInternalDeps provides access to all dependencies including low-level
// components. It handles cleanup automatically.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	trees, err := config.LoadTrees(cwd)
	if err != nil {
		return fmt.Errorf("loading trees: %w", err)
	}

	if globalTree == "" {
		return errors.New("tree is required (use --tree flag)")
	}

	tree, err := trees.Get(globalTree)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("tree", globalTree))

	store, err := sqlite.NewRepository(config.SQLiteConfig{Path: config.SQLitePathForTree(cwd, globalTree)})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	var blobs ports.BlobStore
	switch cfg.Media.Backend {
	case "":
	case "s3":
		blobStore, err := s3.NewStore(ctx, cfg.Media.S3)
		if err != nil {
			return fmt.Errorf("creating s3 store: %w", err)
		}
		blobs = blobStore
	default:
		return fmt.Errorf("unknown media backend %q", cfg.Media.Backend)
	}

	writer := services.NewWriter(store, services.WithLogger(logger))
	people := services.NewPersonService(store, writer)

	var matchService *services.MatchService
	if cfg.Match.Enabled {
		emb, err := embedder.NewEmbedder(cfg.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		qdrantCfg := cfg.Qdrant
		qdrantCfg.Collection = tree.Collection
		index, err := qdrant.NewRepository(qdrantCfg)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer index.Close()

		matchService = services.NewMatchService(store, index, emb, logger)
	}

	deps := &internalDeps{
		Deps: Deps{
			Config:        cfg,
			Trees:         trees,
			Logger:        logger,
			People:        handlers.NewPersonHandler(people, services.NewTraversalService(store, logger)),
			Relationships: handlers.NewRelationshipHandler(services.NewRelationshipService(store, writer), people),
			Events:        handlers.NewEventHandler(services.NewEventService(store, writer)),
			Media:         handlers.NewMediaHandler(services.NewMediaService(store, writer, blobs)),
			Sources:       handlers.NewSourceHandler(services.NewSourceService(store, writer)),
			Match:         handlers.NewMatchHandler(matchService, cfg.Match.Limit),
			Import:        handlers.NewImportHandler(services.NewImportService(store, writer)),
			Export:        handlers.NewExportHandler(store),
		},
		writer:       writer,
		matchService: matchService,
	}

	return fn(deps)
}

// withCollections loads config and passes the match collection for a tree,
// or nil when matching is disabled. vectorSize is the embedding length new
// collections are created with.
func withCollections(cwd, treeName string, fn func(cfg *config.Config, collections ports.CollectionManager, vectorSize uint64) error) error {
	cfg := config.Default()
	if config.Exists(cwd) {
		loaded, err := config.Load(cwd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if !cfg.Match.Enabled {
		return fn(cfg, nil, embedder.VectorSize)
	}

	emb, err := embedder.NewEmbedder(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	qdrantCfg := cfg.Qdrant
	qdrantCfg.Collection = config.GenerateCollectionName(treeName)
	repo, err := qdrant.NewRepository(qdrantCfg)
	if err != nil {
		return fmt.Errorf("creating qdrant repository: %w", err)
	}
	defer repo.Close()

	return fn(cfg, repo, uint64(emb.Dimensions()))
}

// pendingIndex records person changes committed during a command so they can
// be indexed before the process exits.
type pendingIndex struct {
	mu          sync.Mutex
	upserts     map[string]struct{}
	deletes     map[string]struct{}
	unsubscribe func()
}

func newPendingIndex(writer *services.Writer) *pendingIndex {
	p := &pendingIndex{
		upserts: make(map[string]struct{}),
		deletes: make(map[string]struct{}),
	}
	p.unsubscribe = writer.Subscribe(p.record)
	return p
}

func (p *pendingIndex) record(ev services.ChangeEvent) {
	if ev.Entity != services.EntityPerson {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ev.IDs {
		if ev.Kind == services.ChangeDeleted {
			delete(p.upserts, id)
			p.deletes[id] = struct{}{}
			continue
		}
		delete(p.deletes, id)
		p.upserts[id] = struct{}{}
	}
}

func (p *pendingIndex) stop() {
	p.unsubscribe()
}

// flush indexes recorded people. Failures only warn since the tree is
// already committed; "roots match reindex" catches up.
func (p *pendingIndex) flush(ctx context.Context, match *services.MatchService) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id := range p.deletes {
		if err := match.Remove(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "warning: removing %s from match index: %v\n", id, err)
		}
	}
	for id := range p.upserts {
		if err := match.IndexByID(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "warning: indexing %s: %v\n", id, err)
		}
	}
}
