package orchestrator

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/shruggietech/indexer/pkg/exiftool"
	"github.com/shruggietech/indexer/pkg/fsmeta"
	"github.com/shruggietech/indexer/pkg/index"
	"github.com/shruggietech/indexer/pkg/logging"
	"github.com/shruggietech/indexer/pkg/pathutil"
	"github.com/shruggietech/indexer/pkg/rename"
)

// RunOptions carries the per-invocation seams Run needs beyond the
// validated Config itself: a caller-supplied session id (for deterministic
// tests; a UUIDv4 is generated otherwise), a progress callback, a
// cancellation flag, and the writer stdout output goes to.
type RunOptions struct {
	SessionID string
	Progress  func(index.ProgressEvent)
	Cancel    CancelFunc
	Stdout    io.Writer
	Logger    *logging.Logger
}

// Result summarizes one Run invocation for the CLI layer's exit-status
// decision and summary logging.
type Result struct {
	Root            *index.IndexEntry
	Status          Status
	DedupAbsorbed   int
	RenameResult    rename.Result
	DeletedSidecars int
	DeleteFailures  int
}

// Run executes the fixed six-stage pipeline (spec.md §4.10) against target
// under cfg: configuration is assumed already validated via Compile: Run
// itself re-checks the safety gate defensively, since calling Run with a
// hand-built Config that skipped Compile is a programmer error this should
// still catch rather than silently mutate a filesystem.
func Run(ctx context.Context, target string, cfg *Config, opts RunOptions) (*Result, error) {
	// Stage 1: configuration validation (safety gate only — the implication
	// chain is Compile's job and is assumed already applied).
	if cfg.MetaMergeDelete && cfg.OutputFile == "" && !cfg.OutputInplace {
		return nil, &ConfigurationError{Reason: "metadata.meta_merge_delete requires output.file or output.inplace"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.RootLogger
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// Stage 2: target resolution and classification.
	resolved, err := pathutil.Resolve(target)
	if err != nil {
		return nil, &TargetError{Path: target, Reason: err.Error()}
	}
	if _, statErr := os.Lstat(resolved); statErr != nil {
		return nil, &TargetError{Path: target, Reason: statErr.Error()}
	}

	var exifProbe *exiftool.Probe
	if cfg.ExtractEXIF {
		exifProbe = exiftool.NewProbe(cfg.EXIFOverridePath)
		exifProbe.Resolve() // one-shot probe, result cached for the run
	}

	var deleteQueue []string
	build := &index.BuildContext{
		Algorithms:            cfg.Algorithms,
		IDAlgorithm:           cfg.IDAlgorithm,
		SessionID:             sessionID,
		SidecarConfig:         cfg.SidecarConfig,
		ExtensionIndex:        cfg.ExtensionIndex,
		ExtensionPattern:      cfg.ExtensionPattern,
		ExtractEXIF:           cfg.ExtractEXIF,
		EXIFProbe:             exifProbe,
		EXIFTimeout:           cfg.EXIFTimeout,
		EXIFExcludeKeys:       cfg.EXIFExcludeKeys,
		EXIFExcludeExtensions: cfg.EXIFExcludeExtensions,
		MergeSidecars:         cfg.MetaMerge,
		MergeDelete:           cfg.MetaMergeDelete,
		DeleteQueue:           &deleteQueue,
		CreationTimeFallback:  &fsmeta.CreationTimeFallbackGate{},
		Progress:              opts.Progress,
		Logger:                logger,
	}

	// Stage 3: tree construction.
	root, paths, degraded, err := Scan(ctx, resolved, cfg, build, opts.Cancel)
	if err != nil {
		if _, ok := err.(*Cancelled); ok {
			// The delete queue is discarded, never drained, on cancellation.
			return &Result{Status: StatusInterrupted}, err
		}
		if terr, ok := err.(*TargetError); ok {
			return &Result{Status: StatusTargetError}, terr
		}
		return nil, err
	}

	result := &Result{Root: root}

	var absorbed int
	var renameResult rename.Result
	if cfg.RenameEnabled {
		absorbed = rename.Dedup(root, cfg.IDAlgorithm, logger)
		renameResult, err = rename.Rename(root, paths, rename.Options{
			DryRun:           cfg.RenameDryRun,
			DeleteDuplicates: cfg.DeleteDuplicates,
			IDAlgorithm:      cfg.IDAlgorithm,
			Algorithms:       cfg.Algorithms,
			Logger:           logger,
		})
		if err != nil {
			return nil, &RuntimeError{Reason: errors.Wrap(err, "rename pass failed").Error()}
		}
	}
	result.DedupAbsorbed = absorbed
	result.RenameResult = renameResult

	// Stage 4: in-place sidecar writes. A directory target's own root never
	// receives an in-place sidecar — the aggregate file, if requested, is
	// what documents the root; preserved as specified rather than inferred
	// otherwise (spec.md §9 Open Questions).
	if cfg.OutputInplace {
		skipRoot := root.Type == index.TypeDirectory
		if err := writeInPlaceTree(root, paths, skipRoot, logger); err != nil {
			logger.Warnf("in-place sidecar write encountered an error: %v", err)
			degraded = true
		}
	}

	// Stage 5: aggregate output write — atomic, and fatal on failure: the
	// delete queue must not be drained if this step didn't commit.
	if cfg.OutputFile != "" {
		if err := index.WriteAggregateAtomic(cfg.OutputFile, root, logger); err != nil {
			return result, &RuntimeError{Reason: errors.Wrap(err, "unable to write aggregate output").Error()}
		}
	}
	if cfg.OutputStdout {
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		if err := index.WriteStdout(w, root); err != nil {
			return result, &RuntimeError{Reason: errors.Wrap(err, "unable to write stdout output").Error()}
		}
	}

	// Stage 6: delete queue drain. Reached only because every stage above
	// returned without a global fatal error. Each unlink is isolated.
	deleted, failed := drainDeleteQueue(deleteQueue, logger)
	result.DeletedSidecars = deleted
	result.DeleteFailures = failed

	if degraded || failed > 0 {
		result.Status = StatusPartialFailure
	} else {
		result.Status = StatusSuccess
	}

	return result, nil
}

// writeInPlaceTree streams an in-place sidecar for every entry in root's
// tree (using each entry's current, possibly-post-rename path from paths),
// skipping the tree's own root when skipRoot is set.
func writeInPlaceTree(root *index.IndexEntry, paths rename.PathIndex, skipRoot bool, logger *logging.Logger) error {
	return writeInPlaceNode(root, paths, skipRoot, logger)
}

func writeInPlaceNode(entry *index.IndexEntry, paths rename.PathIndex, isRoot bool, logger *logging.Logger) error {
	if !isRoot {
		if path, ok := paths[entry]; ok {
			sidecarPath := pathutil.BuildSidecarPath(path, entry.Type == index.TypeDirectory)
			if err := index.WriteInPlaceSidecar(sidecarPath, entry, logger); err != nil {
				logger.Warnf("unable to write in-place sidecar for %s: %v", path, err)
			}
		}
	}
	for _, child := range entry.Items {
		if err := writeInPlaceNode(child, paths, false, logger); err != nil {
			return err
		}
	}
	return nil
}

// drainDeleteQueue unlinks every sidecar path merge-delete queued. Each
// failure is logged and counted, never aborting the drain (spec.md §4.10
// stage 6).
func drainDeleteQueue(queue []string, logger *logging.Logger) (deleted, failed int) {
	for _, path := range queue {
		if err := os.Remove(path); err != nil {
			logger.Warnf("unable to delete merged sidecar %s: %v", path, err)
			failed++
			continue
		}
		deleted++
	}
	return deleted, failed
}
