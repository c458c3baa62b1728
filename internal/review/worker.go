package review

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/analysis"
	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/engine"
	"github.com/eloinsight/chessd/internal/rules"
)

// Config configures the worker pool's per-job engine and analysis depth.
type Config struct {
	WorkerCount     int
	AnalysisDepth   int
	EngineBinary    string
	ComputeAdvanced bool
}

// Pool is the fixed set of worker goroutines draining one shared job
// channel (spec.md §4.7: "exactly one worker pops each job").
type Pool struct {
	cfg      Config
	manager  *Manager
	reviews  ReviewRepository
	advanced AdvancedAnalysisRepository
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewPool constructs a worker pool. Call Start to launch its goroutines.
func NewPool(cfg Config, manager *Manager, reviews ReviewRepository, advanced AdvancedAnalysisRepository, logger *zap.Logger) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	return &Pool{cfg: cfg, manager: manager, reviews: reviews, advanced: advanced, logger: logger}
}

// Start launches cfg.WorkerCount worker goroutines consuming manager.Jobs().
func (p *Pool) Start() {
	for i := 0; i < p.cfg.WorkerCount; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
}

// Wait blocks until every worker goroutine has exited (the job channel was
// closed).
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	for job := range p.manager.Jobs() {
		p.processJob(id, job)
		p.manager.MarkDone(job.GameID)
	}
}

func (p *Pool) processJob(workerID int, job ReviewJob) {
	logger := p.logger.With(zap.Int("worker", workerID), zap.String("game_id", job.GameID))

	eng, err := engine.New(engine.Config{
		BinaryPath: p.cfg.EngineBinary,
		Threads:    1,
		HashMB:     64,
		SkillLevel: 20, // full strength; review never throttles engine skill
	}, logger)
	if err != nil {
		p.fail(job.GameID, fmt.Errorf("spawn engine: %w", err))
		return
	}
	defer eng.Close()

	review, err := p.reviews.LoadByID(job.GameID)
	if err != nil || review == nil {
		review = &chess.GameReview{
			GameID:        job.GameID,
			Status:        chess.QueuedStatus(),
			TotalPlies:    len(job.GameData.Moves),
			AnalysisDepth: p.cfg.AnalysisDepth,
		}
	}
	startPly := review.AnalyzedPlies

	for i := startPly; i < len(job.GameData.Moves); i++ {
		pr, err := p.analyzePly(eng, job.GameData, i)
		if err != nil {
			p.fail(job.GameID, err)
			return
		}
		review.Positions = append(review.Positions, *pr)
		review.AnalyzedPlies = i + 1
		review.Status = chess.AnalyzingStatus(review.AnalyzedPlies, review.TotalPlies)
		if err := p.reviews.Save(review); err != nil {
			p.fail(job.GameID, fmt.Errorf("persist partial review: %w", err))
			return
		}
	}

	whiteAcc, blackAcc := computeAccuracies(review.Positions)
	review.WhiteAccuracy = &whiteAcc
	review.BlackAccuracy = &blackAcc
	winner := resultToColor(job.GameData.Result)
	review.Winner = winner
	review.Status = chess.CompleteStatus()
	now := time.Now().Unix()
	review.CompletedAt = &now
	if err := p.reviews.Save(review); err != nil {
		p.fail(job.GameID, fmt.Errorf("persist complete review: %w", err))
		return
	}

	if p.cfg.ComputeAdvanced {
		adv, err := analysis.ComputeForReview(job.GameID, review.Positions, job.GameData.StartFEN, now, nil)
		if err != nil {
			logger.Warn("advanced analysis failed", zap.Error(err))
			return
		}
		if err := p.advanced.Save(job.GameID, adv); err != nil {
			logger.Warn("persist advanced analysis failed", zap.Error(err))
		}
	}
}

func (p *Pool) fail(gameID string, cause error) {
	p.logger.Error("review failed", zap.String("game_id", gameID), zap.Error(cause))
	failed := &chess.GameReview{GameID: gameID, Status: chess.FailedStatus(cause.Error())}
	if err := p.reviews.Save(failed); err != nil {
		p.logger.Error("failed to persist failed-review status", zap.Error(err))
	}
}

// analyzePly runs Phase 1 of the pipeline for one ply (spec.md §4.7 step 2).
func (p *Pool) analyzePly(eng *engine.Engine, game FinishedGame, i int) (*chess.PositionReview, error) {
	fenBefore := game.StartFEN
	if i > 0 {
		fenBefore = game.Moves[i-1].FENAfter
	}
	mv := game.Moves[i]
	fenAfter := mv.FENAfter

	forced, err := rules.IsForced(fenBefore)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "legal move generation failed", err)
	}

	moverBefore, err := chess.ParseFEN(fenBefore)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "corrupt fen_before", err)
	}
	mover := moverBefore.SideToMove

	bestEval, err := eng.EvaluatePosition(fenBefore, p.cfg.AnalysisDepth)
	if err != nil {
		return nil, apperr.Wrap(apperr.EngineProtocol, "evaluate fen_before", err)
	}
	bestSAN, err := rules.SANForUCI(fenBefore, bestEval.BestMove)
	if err != nil {
		bestSAN = bestEval.BestMove
	}

	terminalAfter, err := rules.StatusOf(fenAfter)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "status of fen_after", err)
	}

	var playedEval chess.AnalysisScore
	if terminalAfter.Status != rules.Ongoing {
		if terminalAfter.Status == rules.Won {
			// The side to move in fen_after is the one just checkmated.
			// Mate(0) has no sign and can't survive Negate, so record the
			// closest signed mate distance instead.
			playedEval = chess.Mate(-1)
		} else {
			playedEval = chess.Cp(0)
		}
	} else {
		res, err := eng.EvaluatePosition(fenAfter, p.cfg.AnalysisDepth)
		if err != nil {
			return nil, apperr.Wrap(apperr.EngineProtocol, "evaluate fen_after", err)
		}
		playedEval = res.Score
	}

	bestCp := bestEval.Score.ToCp()
	playedCp := -playedEval.ToCp()
	cpLoss := bestCp - playedCp
	if cpLoss < 0 {
		cpLoss = 0
	}

	isBestMove := mv.SAN == bestSAN
	classification := chess.ClassifyMove(cpLoss, forced, isBestMove)

	evalBeforeWhite := bestEval.Score
	evalAfterWhite := playedEval
	evalBestWhite := bestEval.Score
	if mover == chess.Black {
		evalBeforeWhite = evalBeforeWhite.Negate()
		evalBestWhite = evalBestWhite.Negate()
	}
	// fen_after has the opponent to move, so playedEval is from the
	// opponent's perspective; White-normalize by negating when the
	// opponent is Black (i.e. mover == White).
	if mover == chess.White {
		evalAfterWhite = evalAfterWhite.Negate()
	}

	return &chess.PositionReview{
		Ply:            i + 1,
		FEN:            fenAfter,
		PlayedSAN:      mv.SAN,
		BestMoveSAN:    bestSAN,
		BestMoveUCI:    bestEval.BestMove,
		EvalBefore:     evalBeforeWhite,
		EvalAfter:      evalAfterWhite,
		EvalBest:       evalBestWhite,
		Classification: classification,
		CpLoss:         cpLoss,
		PV:             bestEval.PV,
		Depth:          bestEval.Depth,
		ClockMs:        mv.ClockMs,
	}, nil
}

// computeAccuracies derives per-side accuracy from cp-loss using a fixed
// monotone penalty (spec.md §4.7 step 3 leaves the exact formula open).
func computeAccuracies(positions []chess.PositionReview) (white, black float64) {
	var whiteLosses, blackLosses []int
	for _, p := range positions {
		if p.Ply%2 == 1 {
			whiteLosses = append(whiteLosses, p.CpLoss)
		} else {
			blackLosses = append(blackLosses, p.CpLoss)
		}
	}
	return accuracyFromLosses(whiteLosses), accuracyFromLosses(blackLosses)
}

func accuracyFromLosses(losses []int) float64 {
	if len(losses) == 0 {
		return 100
	}
	sum := 0.0
	for _, l := range losses {
		penalty := float64(l) / 3
		if penalty > 100 {
			penalty = 100
		}
		sum += 100 - penalty
	}
	return sum / float64(len(losses))
}

func resultToColor(result chess.GameResult) *chess.Color {
	switch result {
	case chess.WhiteWins:
		w := chess.White
		return &w
	case chess.BlackWins:
		b := chess.Black
		return &b
	default:
		return nil
	}
}
