package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"giftchain.backend/internal/domain/entities"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/internal/domain/repositories"
	"giftchain.backend/pkg/logger"
	"giftchain.backend/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultVerifyLockTTL = 60 * time.Second
	defaultVerifyTimeout = 45 * time.Second
	maxGiftsPerBatch     = 50
)

// VerificationLocker is a best-effort cross-process lock. pkg/redis.Client satisfies it.
type VerificationLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// VerificationOptions tunes the verification usecase
type VerificationOptions struct {
	LockTTL time.Duration
	Timeout time.Duration
}

// VerificationUsecase verifies client-submitted transactions and settles the gifts they pay for
type VerificationUsecase struct {
	giftRepo  repositories.GiftRepository
	verifiers map[entities.ChainType]ChainVerifier
	settler   Settler
	locker    VerificationLocker
	metrics   *metrics.VerificationMetrics
	group     singleflight.Group
	lockTTL   time.Duration
	timeout   time.Duration
}

// NewVerificationUsecase wires the chain verifiers. locker and m may be nil.
func NewVerificationUsecase(
	giftRepo repositories.GiftRepository,
	verifiers []ChainVerifier,
	settler Settler,
	locker VerificationLocker,
	m *metrics.VerificationMetrics,
	opts VerificationOptions,
) *VerificationUsecase {
	byChain := make(map[entities.ChainType]ChainVerifier, len(verifiers))
	for _, v := range verifiers {
		byChain[v.Chain()] = v
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultVerifyLockTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultVerifyTimeout
	}
	return &VerificationUsecase{
		giftRepo:  giftRepo,
		verifiers: byChain,
		settler:   settler,
		locker:    locker,
		metrics:   m,
		lockTTL:   opts.LockTTL,
		timeout:   opts.Timeout,
	}
}

type verifyRequest struct {
	chain    entities.ChainType
	verifier ChainVerifier
	txRef    string
	claimant string
	ids      []uuid.UUID
}

// VerifyGifts checks the referenced transaction against the requested gifts and settles
// them when it proves payment. Rejections come back as results, infrastructure failures
// as errors.
func (u *VerificationUsecase) VerifyGifts(ctx context.Context, input *entities.VerifyGiftsInput) (*entities.VerificationResult, error) {
	req, err := u.parseRequest(input)
	if err != nil {
		return nil, err
	}

	keyIDs := make([]string, 0, len(req.ids))
	for _, id := range req.ids {
		keyIDs = append(keyIDs, id.String())
	}
	sort.Strings(keyIDs)
	key := fmt.Sprintf("%s:%s:%s", req.chain, req.txRef, strings.Join(keyIDs, ","))

	v, err, shared := u.group.Do(key, func() (interface{}, error) {
		// Settlement must not be abandoned halfway because one caller went away.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout)
		defer cancel()
		return u.verifyAndSettle(runCtx, req)
	})
	if shared {
		logger.Debug(ctx, "Joined in-flight verification", zap.String("txRef", req.txRef))
	}
	if err != nil {
		return nil, err
	}
	return v.(*entities.VerificationResult), nil
}

func (u *VerificationUsecase) parseRequest(input *entities.VerifyGiftsInput) (*verifyRequest, error) {
	if input == nil {
		return nil, domainerrors.BadRequest("request body is required")
	}
	chain, ok := entities.ParseChainType(input.VerifyType)
	if !ok {
		return nil, domainerrors.BadRequest(fmt.Sprintf("unsupported verifyType %q", input.VerifyType))
	}
	verifier, ok := u.verifiers[chain]
	if !ok {
		return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeBadRequest,
			fmt.Sprintf("chain %s is not enabled", chain), domainerrors.ErrUnsupportedChain)
	}

	txRef := strings.TrimSpace(input.TxReference)
	if txRef == "" {
		return nil, domainerrors.BadRequest("txDigest is required")
	}
	claimant := entities.NormalizeAddress(chain, input.Address)
	if claimant == "" {
		return nil, domainerrors.BadRequest("address is required")
	}

	rawIDs := input.AllGiftIDs()
	if len(rawIDs) == 0 {
		return nil, domainerrors.BadRequest("giftId or giftIds is required")
	}
	if len(rawIDs) > maxGiftsPerBatch {
		return nil, domainerrors.BadRequest(fmt.Sprintf("at most %d gifts per transaction", maxGiftsPerBatch))
	}
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, domainerrors.BadRequest(fmt.Sprintf("invalid gift id %q", raw))
		}
		ids = append(ids, id)
	}

	return &verifyRequest{
		chain:    chain,
		verifier: verifier,
		txRef:    txRef,
		claimant: claimant,
		ids:      ids,
	}, nil
}

func (u *VerificationUsecase) verifyAndSettle(ctx context.Context, req *verifyRequest) (*entities.VerificationResult, error) {
	start := time.Now()

	release, err := u.acquireLock(ctx, req)
	if err != nil {
		u.observe(req.chain, metrics.OutcomeInconclusive, start)
		return nil, err
	}
	defer release()

	gifts, err := u.giftRepo.GetByIDs(ctx, req.ids)
	if err != nil {
		u.observe(req.chain, metrics.OutcomeError, start)
		return nil, fmt.Errorf("%w: load gifts: %v", domainerrors.ErrDatabaseUnavailable, err)
	}
	if len(gifts) != len(req.ids) {
		u.observe(req.chain, metrics.OutcomeRejected, start)
		return rejectedOn(req.chain, req.txRef, entities.Rejected(entities.VerificationGiftCountMismatch,
			fmt.Sprintf("found %d of %d requested gifts", len(gifts), len(req.ids)))), nil
	}

	if res := settledState(req.chain, req.txRef, gifts); res != nil {
		u.observeResult(req.chain, res, start)
		return res, nil
	}

	// None of these gifts carries txRef, so any earlier use paid for other gifts.
	used, err := u.giftRepo.TxReferenceUsed(ctx, req.txRef)
	if err != nil {
		u.observe(req.chain, metrics.OutcomeError, start)
		return nil, fmt.Errorf("%w: check tx reference: %v", domainerrors.ErrDatabaseUnavailable, err)
	}
	if used {
		u.observe(req.chain, metrics.OutcomeRejected, start)
		return rejectedOn(req.chain, req.txRef, txAlreadyUsed(req.txRef)), nil
	}

	res, err := req.verifier.Verify(ctx, req.txRef, req.claimant, gifts)
	if err != nil {
		u.observe(req.chain, metrics.OutcomeInconclusive, start)
		logger.Warn(ctx, "Verification inconclusive",
			zap.String("chain", req.chain.String()),
			zap.String("txRef", req.txRef),
			zap.Error(err),
		)
		if !errors.Is(err, domainerrors.ErrChainUnavailable) {
			err = fmt.Errorf("%w: %v", domainerrors.ErrChainUnavailable, err)
		}
		return nil, err
	}
	if !res.Verified {
		u.observe(req.chain, metrics.OutcomeRejected, start)
		logger.Info(ctx, "Verification rejected",
			zap.String("chain", req.chain.String()),
			zap.String("txRef", req.txRef),
			zap.String("code", string(res.Code)),
			zap.String("reason", res.Reason),
		)
		return res, nil
	}

	if err := u.settler.Settle(ctx, gifts, gifts[0].SenderWallet, req.txRef); err != nil {
		if errors.Is(err, domainerrors.ErrTxReferenceUsed) {
			u.observe(req.chain, metrics.OutcomeRejected, start)
			return rejectedOn(req.chain, req.txRef, txAlreadyUsed(req.txRef)), nil
		}
		if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
			u.observe(req.chain, metrics.OutcomeError, start)
			return nil, err
		}
		return u.answerAfterLostRace(ctx, req, start)
	}

	u.observe(req.chain, metrics.OutcomeVerified, start)
	if u.metrics != nil {
		u.metrics.AddSettledGifts(req.chain.String(), len(gifts))
	}
	return res, nil
}

// answerAfterLostRace re-reads the gifts after another settlement won the update.
func (u *VerificationUsecase) answerAfterLostRace(ctx context.Context, req *verifyRequest, start time.Time) (*entities.VerificationResult, error) {
	gifts, err := u.giftRepo.GetByIDs(ctx, req.ids)
	if err != nil {
		u.observe(req.chain, metrics.OutcomeError, start)
		return nil, fmt.Errorf("%w: reload gifts: %v", domainerrors.ErrDatabaseUnavailable, err)
	}
	res := settledState(req.chain, req.txRef, gifts)
	if res == nil {
		res = rejectedOn(req.chain, req.txRef, entities.Rejected(entities.VerificationGiftNotPending,
			"gifts changed while settling, resubmit"))
	}
	u.observeResult(req.chain, res, start)
	return res, nil
}

// settledState answers for gifts that are already settled: an idempotent success when
// this very reference settled all of them, a rejection when any was settled otherwise.
func settledState(chain entities.ChainType, txRef string, gifts []*entities.Gift) *entities.VerificationResult {
	all := len(gifts) > 0
	for _, gift := range gifts {
		if !gift.SettledBy(txRef) {
			all = false
			break
		}
	}
	if all {
		matches := make([]entities.GiftMatch, 0, len(gifts))
		for _, gift := range gifts {
			matches = append(matches, entities.GiftMatch{
				GiftID:    gift.GiftDBID(),
				Recipient: gift.ReceiverWallet,
				Amount:    gift.TotalTokenAmount,
			})
		}
		res := acceptedOn(chain, txRef, matches)
		res.AlreadyProcessed = true
		return res
	}

	for _, gift := range gifts {
		if gift.Verified {
			return rejectedOn(chain, txRef, entities.Rejected(entities.VerificationAlreadyVerified,
				fmt.Sprintf("gift %s is already verified", gift.GiftDBID())))
		}
	}
	return nil
}

func txAlreadyUsed(txRef string) *entities.VerificationResult {
	return entities.Rejected(entities.VerificationTxAlreadyUsed,
		fmt.Sprintf("transaction %s already paid for other gifts", txRef))
}

func (u *VerificationUsecase) acquireLock(ctx context.Context, req *verifyRequest) (func(), error) {
	noop := func() {}
	if u.locker == nil {
		return noop, nil
	}
	key := fmt.Sprintf("verify-lock:%s:%s", req.chain, req.txRef)
	ok, err := u.locker.SetNX(ctx, key, uuid.NewString(), u.lockTTL)
	if err != nil {
		// The conditional update still guards settlement.
		logger.Warn(ctx, "Verification lock unavailable, continuing without it",
			zap.String("key", key),
			zap.Error(err),
		)
		return noop, nil
	}
	if !ok {
		return nil, domainerrors.VerificationInProgress()
	}
	return func() {
		if err := u.locker.Del(context.WithoutCancel(ctx), key); err != nil {
			logger.Warn(ctx, "Failed to release verification lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (u *VerificationUsecase) observeResult(chain entities.ChainType, res *entities.VerificationResult, start time.Time) {
	switch {
	case res.AlreadyProcessed:
		u.observe(chain, metrics.OutcomeAlreadyProcessed, start)
	case res.Verified:
		u.observe(chain, metrics.OutcomeVerified, start)
	default:
		u.observe(chain, metrics.OutcomeRejected, start)
	}
}

func (u *VerificationUsecase) observe(chain entities.ChainType, outcome string, start time.Time) {
	if u.metrics == nil {
		return
	}
	u.metrics.ObserveVerification(chain.String(), outcome, time.Since(start))
}
