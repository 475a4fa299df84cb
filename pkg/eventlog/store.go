package eventlog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ferrodb/ferro/pkg/metrics"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketMeta   = []byte("meta")
	bucketEpochs = []byte("epochs")

	keyLastSequence = []byte("last_sequence")
	keyLastEpoch    = []byte("last_epoch")
)

// chunkSpan is the number of records per chunk bucket
const chunkSpan = 4096

// Record is a single stored event
type Record struct {
	Sequence  int64
	Stream    string
	EventID   uuid.UUID
	EventType string
	IsJSON    bool
	Data      []byte
	Metadata  []byte
	CreatedAt time.Time
}

// Epoch is a leadership epoch record
type Epoch struct {
	Number         int
	ProposalNumber int
	LeaderID       uuid.UUID
	WrittenAt      time.Time
}

// Store is the bbolt-backed event log. Records live in fixed-span
// chunk buckets keyed by big-endian sequence number.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the log database in dataDir
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "ferro.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open log database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketMeta, bucketEpochs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func chunkBucket(seq int64) []byte {
	return []byte(fmt.Sprintf("chunk-%08d", seq/chunkSpan))
}

func sequenceKey(seq int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(seq))
	return key
}

// Append stores records at the next sequence numbers and returns the
// first sequence assigned.
func (s *Store) Append(records []Record) (int64, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("nothing to append")
	}

	var first int64

	err := s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)

		next := int64(0)
		if raw := meta.Get(keyLastSequence); raw != nil {
			next = int64(binary.BigEndian.Uint64(raw)) + 1
		}
		first = next

		for i := range records {
			records[i].Sequence = next
			if records[i].CreatedAt.IsZero() {
				records[i].CreatedAt = time.Now()
			}

			b, err := tx.CreateBucketIfNotExists(chunkBucket(next))
			if err != nil {
				return err
			}
			data, err := json.Marshal(records[i])
			if err != nil {
				return err
			}
			if err := b.Put(sequenceKey(next), data); err != nil {
				return err
			}
			next++
		}

		return meta.Put(keyLastSequence, sequenceKey(next-1))
	})
	if err != nil {
		return 0, err
	}

	metrics.EventsAppendedTotal.Add(float64(len(records)))
	return first, nil
}

// ReadFrom returns up to count records starting at seq, in order
func (s *Store) ReadFrom(seq int64, count int) ([]Record, error) {
	var records []Record

	err := s.db.View(func(tx *bolt.Tx) error {
		for len(records) < count {
			b := tx.Bucket(chunkBucket(seq))
			if b == nil {
				return nil
			}
			data := b.Get(sequenceKey(seq))
			if data == nil {
				return nil
			}
			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			seq++
		}
		return nil
	})
	return records, err
}

// LastSequence returns the highest assigned sequence, or -1 when the
// log is empty.
func (s *Store) LastSequence() (int64, error) {
	last := int64(-1)
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(bucketMeta).Get(keyLastSequence); raw != nil {
			last = int64(binary.BigEndian.Uint64(raw))
		}
		return nil
	})
	return last, err
}

// WriteEpoch records a new leadership epoch
func (s *Store) WriteEpoch(proposalNumber int, leaderID uuid.UUID) (*Epoch, error) {
	var epoch Epoch

	err := s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)

		number := 0
		if raw := meta.Get(keyLastEpoch); raw != nil {
			number = int(binary.BigEndian.Uint64(raw)) + 1
		}

		epoch = Epoch{
			Number:         number,
			ProposalNumber: proposalNumber,
			LeaderID:       leaderID,
			WrittenAt:      time.Now(),
		}

		data, err := json.Marshal(epoch)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketEpochs).Put(sequenceKey(int64(number)), data); err != nil {
			return err
		}
		return meta.Put(keyLastEpoch, sequenceKey(int64(number)))
	})
	if err != nil {
		return nil, err
	}

	metrics.EpochsWrittenTotal.Inc()
	return &epoch, nil
}

// CurrentEpoch returns the latest epoch record, or nil before the
// first election.
func (s *Store) CurrentEpoch() (*Epoch, error) {
	var epoch *Epoch
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyLastEpoch)
		if raw == nil {
			return nil
		}
		data := tx.Bucket(bucketEpochs).Get(raw)
		if data == nil {
			return fmt.Errorf("epoch record missing for %d", binary.BigEndian.Uint64(raw))
		}
		epoch = &Epoch{}
		return json.Unmarshal(data, epoch)
	})
	return epoch, err
}
