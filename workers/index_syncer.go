package workers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/camden-git/aliasbackend/chain"
	"github.com/camden-git/aliasbackend/database"
	"github.com/camden-git/aliasbackend/index"
	"github.com/camden-git/aliasbackend/logger"
	"github.com/camden-git/aliasbackend/memo"
	"github.com/camden-git/aliasbackend/models"
	"github.com/camden-git/aliasbackend/realtime"
	"github.com/camden-git/aliasbackend/repository"
)

// TxSource pages through transactions matching a CometBFT event query.
type TxSource interface {
	TxSearch(ctx context.Context, query string, page, perPage int) (chain.SearchPage, error)
}

// Invalidator is told when the alias table has been rebuilt.
type Invalidator interface {
	Invalidate()
}

type SyncResult struct {
	Scanned int
	Saved   int64
	Records int
	Height  int64
}

// IndexSyncer scans the service account's transactions, stores their memos
// and rebuilds the alias table from the full memo history.
type IndexSyncer struct {
	Source   TxSource
	Repo     repository.AliasRepositoryInterface
	DB       *sql.DB
	Cache    Invalidator
	Events   *realtime.Hub // optional
	Account  string
	PageSize int
	Interval time.Duration
	Log      *logger.Logger
	Wg       sync.WaitGroup
	StopChan chan struct{}
	Mutex    sync.Mutex
}

func NewIndexSyncer(source TxSource, repo repository.AliasRepositoryInterface, db *sql.DB, cache Invalidator, account string, pageSize int, interval time.Duration, log *logger.Logger) *IndexSyncer {
	if pageSize <= 0 {
		pageSize = 50
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &IndexSyncer{
		Source:   source,
		Repo:     repo,
		DB:       db,
		Cache:    cache,
		Account:  account,
		PageSize: pageSize,
		Interval: interval,
		Log:      log.With("component", "index_syncer", "account", account),
		StopChan: make(chan struct{}),
	}
}

// Start runs one sync immediately, then one per interval until Stop.
func (s *IndexSyncer) Start() {
	s.Wg.Add(1)
	go s.loop()
	s.Log.Info("index syncer started", "interval", s.Interval.String(), "page_size", s.PageSize)
}

func (s *IndexSyncer) loop() {
	defer s.Wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.StopChan
		cancel()
	}()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.SyncOnce(ctx); err != nil && ctx.Err() == nil {
			s.Log.Error("index sync failed", "error", err)
		}
		select {
		case <-ticker.C:
		case <-s.StopChan:
			s.Log.Info("index syncer stopping: stop signal received")
			return
		}
	}
}

// SyncOnce fetches everything above the stored cursor. When new transactions
// are found the alias table is rebuilt and the cursor advanced; a failure
// anywhere leaves the cursor where it was so the next run retries.
func (s *IndexSyncer) SyncOnce(ctx context.Context) (SyncResult, error) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()

	cursor, err := database.GetSyncCursor(s.DB, s.Account)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return SyncResult{}, err
	}
	result := SyncResult{Height: cursor.Height}

	query := fmt.Sprintf("message.sender='%s' AND tx.height>%d", s.Account, cursor.Height)
	var fresh []models.MemoEntry
	for page := 1; ; page++ {
		res, err := s.Source.TxSearch(ctx, query, page, s.PageSize)
		if err != nil {
			return result, fmt.Errorf("tx_search page %d: %w", page, err)
		}
		for _, tx := range res.Txs {
			result.Scanned++
			if tx.Height > result.Height {
				result.Height = tx.Height
			}
			if entry, ok := s.entryFor(tx); ok {
				fresh = append(fresh, entry)
			}
		}
		if len(res.Txs) == 0 || page*s.PageSize >= res.TotalCount {
			break
		}
	}

	if result.Scanned == 0 {
		return result, nil
	}

	result.Saved, err = s.Repo.SaveEntries(fresh)
	if err != nil {
		return result, err
	}

	stored, err := s.Repo.ListEntries(s.Account)
	if err != nil {
		return result, err
	}
	entries := make([]index.Entry, 0, len(stored))
	for _, e := range stored {
		entries = append(entries, index.Entry{Hash: e.Hash, Height: e.Height, TxIndex: e.TxIndex, Memo: e.Memo})
	}
	records := index.Build(entries)
	if err := s.Repo.ReplaceRecords(index.ToModels(records)); err != nil {
		return result, err
	}
	result.Records = len(records)

	if err := database.SetSyncCursor(s.DB, s.Account, result.Height); err != nil {
		return result, err
	}
	if s.Cache != nil {
		s.Cache.Invalidate()
	}
	s.Events.Broadcast(realtime.Event{Type: realtime.EventIndexUpdated, Height: result.Height, Records: result.Records})

	s.Log.Info("alias index updated",
		"scanned", result.Scanned,
		"saved", result.Saved,
		"records", result.Records,
		"height", result.Height)
	return result, nil
}

// entryFor turns a search hit into a stored entry. Failed transactions never
// took effect on chain and are dropped.
func (s *IndexSyncer) entryFor(tx chain.TxResult) (models.MemoEntry, bool) {
	if tx.Code != 0 {
		s.Log.Debug("skipping failed transaction", "tx_hash", tx.Hash, "code", tx.Code)
		return models.MemoEntry{}, false
	}
	text, err := chain.DecodeTxMemo(tx.Tx)
	if err != nil {
		s.Log.Warn("skipping undecodable transaction", "tx_hash", tx.Hash, "error", err)
		return models.MemoEntry{}, false
	}

	kind := "unknown"
	if op, ok := memo.Decode(text); ok {
		kind = op.Kind.String()
	}
	return models.MemoEntry{
		Account: s.Account,
		Hash:    tx.Hash,
		Height:  tx.Height,
		TxIndex: tx.Index,
		Memo:    text,
		Kind:    kind,
	}, true
}

func (s *IndexSyncer) Stop() {
	s.Log.Info("stopping index syncer...")
	close(s.StopChan)
	s.Wg.Wait()
	s.Log.Info("index syncer stopped")
}
