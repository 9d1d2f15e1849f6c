package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/objectstorage"
	"github.com/iotaledger/hive.go/runtime/event"
	"github.com/iotaledger/hornet/v2/pkg/common"
	"github.com/iotaledger/hornet/v2/pkg/model/milestonemanager"
	"github.com/iotaledger/hornet/v2/pkg/model/syncmanager"
	"github.com/iotaledger/hornet/v2/pkg/model/utxo"
	"github.com/iotaledger/hornet/v2/pkg/profile"
	iotago "github.com/iotaledger/iota.go/v3"
)

type packageEvents struct {
	PruningStateChanged      *event.Event1[bool]
	ShardCreated            *event.Event1[*Shard]
	ShardDistributed        *event.Event1[*ShardDistribution]
	ShardHealthCheckFailed  *event.Event1[*ShardHealthReport]
}

type Storage struct {
	// existing fields
	shutdownOnce sync.Once
	utxoManager  *utxo.Manager
	store        kvstore.KVStore
	utxoStore    kvstore.KVStore

	// cache
	blocksStorage             *objectstorage.ObjectStorage
	metadataStorage           *objectstorage.ObjectStorage
	childrenStorage           *objectstorage.ObjectStorage
	unreferencedBlocksStorage *objectstorage.ObjectStorage
	milestonesStorage         *objectstorage.ObjectStorage
	milestoneTimestamps       *objectstorage.ObjectStorage

	// snapshot
	snapshotStore        kvstore.KVStore
	protocolStore        kvstore.KVStore
	solidEntryPoints     *SolidEntryPoints
	solidEntryPointsLock sync.RWMutex

	// health
	healthTrackers                   []kvstore.StoreHealthTracker
	setBlockSolidFunc                milestonemanager.BlockSolidFunc
	lastPruningBySizeMilestoneIndex  syncmanager.MilestoneIndex
	lastPruningBySizeTime            time.Time
	pruningLock                      sync.RWMutex

	// shard storage additions
	shardStorage             *objectstorage.ObjectStorage
	shardDistributionStorage *objectstorage.ObjectStorage
	shardHealthManager       *ShardHealthManager
	geographicVerifier       *GeographicVerifier
	shardMutex               sync.RWMutex

	// events
	Events *packageEvents
}

// New creates a new storage instance
func New(tangleStore kvstore.KVStore, utxoStore kvstore.KVStore, cachesProfile *profile.Caches) (*Storage, error) {
	s := &Storage{
		store:      tangleStore,
		utxoStore:  utxoStore,
		Events: &packageEvents{
			PruningStateChanged:     event.New1[bool](),
			ShardCreated:           event.New1[*Shard](),
			ShardDistributed:       event.New1[*ShardDistribution](),
			ShardHealthCheckFailed: event.New1[*ShardHealthReport](),
		},
	}

	if err := s.configureStorages(tangleStore, cachesProfile); err != nil {
		return nil, err
	}

	utxoManager, err := utxo.New(s.utxoStore)
	if err != nil {
		return nil, err
	}
	s.utxoManager = utxoManager

	// Initialize shard components
	s.shardHealthManager = NewShardHealthManager(logger.NewLogger("ShardHealth"))
	s.geographicVerifier = NewGeographicVerifier()

	// Load solid entry points
	if err := s.loadSolidEntryPoints(); err != nil {
		return nil, err
	}

	return s, nil
}

// Shard storage methods

// CreateShard creates a new shard for data storage
func (s *Storage) CreateShard(data []byte, shardIndex uint32, totalShards uint32) (*Shard, error) {
	s.shardMutex.Lock()
	defer s.shardMutex.Unlock()

	shard := &Shard{
		ID:          generateShardID(data, shardIndex),
		Index:       shardIndex,
		TotalShards: totalShards,
		Data:        data,
		CreatedAt:   time.Now(),
		Size:        uint64(len(data)),
	}

	if err := s.storeShard(shard); err != nil {
		return nil, err
	}

	s.Events.ShardCreated.Trigger(shard)
	return shard, nil
}

// DistributeShard distributes a shard to multiple geographic locations
func (s *Storage) DistributeShard(shard *Shard, locations []string, redundancy int) (*ShardDistribution, error) {
	s.shardMutex.Lock()
	defer s.shardMutex.Unlock()

	// Verify geographic diversity
	if err := s.geographicVerifier.VerifyDiversity(locations); err != nil {
		return nil, errors.Wrap(err, "geographic diversity verification failed")
	}

	distribution := &ShardDistribution{
		ShardID:     shard.ID,
		Locations:   locations,
		Redundancy:  redundancy,
		CreatedAt:   time.Now(),
		LastChecked: time.Now(),
		Replicas:    make(map[string]*ShardReplica),
	}

	// Create replicas for each location
	for _, location := range locations {
		replica := &ShardReplica{
			Location:   location,
			NodeID:     s.selectNodeForLocation(location),
			Status:     ReplicaStatusPending,
			LastUpdate: time.Now(),
		}
		distribution.Replicas[location] = replica
	}

	if err := s.storeShardDistribution(distribution); err != nil {
		return nil, err
	}

	s.Events.ShardDistributed.Trigger(distribution)
	return distribution, nil
}

// GetShard retrieves a shard by ID
func (s *Storage) GetShard(shardID string) (*Shard, error) {
	s.shardMutex.RLock()
	defer s.shardMutex.RUnlock()

	cachedShard := s.shardStorage.Load([]byte(shardID))
	if cachedShard == nil {
		return nil, errors.New("shard not found")
	}
	defer cachedShard.Release()

	return cachedShard.Get().(*Shard), nil
}

// GetShardDistribution retrieves distribution info for a shard
func (s *Storage) GetShardDistribution(shardID string) (*ShardDistribution, error) {
	s.shardMutex.RLock()
	defer s.shardMutex.RUnlock()

	cachedDist := s.shardDistributionStorage.Load([]byte(shardID))
	if cachedDist == nil {
		return nil, errors.New("shard distribution not found")
	}
	defer cachedDist.Release()

	return cachedDist.Get().(*ShardDistribution), nil
}

// HealthCheckShard performs health check on a shard
func (s *Storage) HealthCheckShard(shardID string) (*ShardHealthReport, error) {
	distribution, err := s.GetShardDistribution(shardID)
	if err != nil {
		return nil, err
	}

	report := s.shardHealthManager.CheckShardHealth(distribution)
	
	if !report.Healthy {
		s.Events.ShardHealthCheckFailed.Trigger(report)
		
		// Trigger self-healing if needed
		if report.FailedReplicas > 0 {
			if err := s.healShard(shardID, report); err != nil {
				return report, errors.Wrap(err, "self-healing failed")
			}
		}
	}

	return report, nil
}

// healShard performs self-healing for unhealthy shards
func (s *Storage) healShard(shardID string, report *ShardHealthReport) error {
	s.shardMutex.Lock()
	defer s.shardMutex.Unlock()

	shard, err := s.GetShard(shardID)
	if err != nil {
		return err
	}

	distribution, err := s.GetShardDistribution(shardID)
	if err != nil {
		return err
	}

	// Find healthy replicas
	var healthyReplicas []string
	for location, replica := range distribution.Replicas {
		if replica.Status == ReplicaStatusHealthy {
			healthyReplicas = append(healthyReplicas, location)
		}
	}

	// Need at least one healthy replica to heal from
	if len(healthyReplicas) == 0 {
		return errors.New("no healthy replicas available for healing")
	}

	// Heal failed replicas
	for location, replica := range distribution.Replicas {
		if replica.Status != ReplicaStatusHealthy {
			// Select new node for this location
			newNodeID := s.selectNodeForLocation(location)
			
			// Copy shard data from healthy replica
			if err := s.copyShardToNode(shard, healthyReplicas[0], location, newNodeID); err != nil {
				continue // Try next replica
			}

			// Update replica info
			replica.NodeID = newNodeID
			replica.Status = ReplicaStatusHealthy
			replica.LastUpdate = time.Now()
			replica.FailureCount = 0
		}
	}

	// Update distribution
	distribution.LastChecked = time.Now()
	return s.storeShardDistribution(distribution)
}

// selectNodeForLocation selects appropriate node for a geographic location
func (s *Storage) selectNodeForLocation(location string) string {
	// This would integrate with actual node selection logic
	// For now, return a mock node ID
	return fmt.Sprintf("node-%s-%d", location, time.Now().Unix())
}

// copyShardToNode copies shard data from source to destination
func (s *Storage) copyShardToNode(shard *Shard, sourceLocation, destLocation, destNodeID string) error {
	// This would implement actual data transfer logic
	// For now, simulate the operation
	time.Sleep(100 * time.Millisecond)
	return nil
}

// storeShard stores a shard in the storage
func (s *Storage) storeShard(shard *Shard) error {
	return s.shardStorage.Store(shard).Err()
}

// storeShardDistribution stores shard distribution info
func (s *Storage) storeShardDistribution(distribution *ShardDistribution) error {
	return s.shardDistributionStorage.Store(distribution).Err()
}

// generateShardID generates a unique ID for a shard
func generateShardID(data []byte, index uint32) string {
	// Implementation would use proper hashing
	return fmt.Sprintf("shard-%d-%d", index, time.Now().UnixNano())
}

// configureStorages configures all storage components
func (s *Storage) configureStorages(tangleStore kvstore.KVStore, cachesProfile *profile.Caches) error {
	// Existing storage configuration...
	
	// Configure shard storage
	shardStore, err := tangleStore.WithRealm([]byte{common.StorePrefixShards})
	if err != nil {
		return err
	}

	s.shardStorage = objectstorage.New(
		shardStore,
		shardFactory,
		objectstorage.CacheTime(time.Duration(5)*time.Minute),
		objectstorage.PersistenceEnabled(true),
		objectstorage.StoreOnCreation(true),
	)

	// Configure shard distribution storage
	distStore, err := tangleStore.WithRealm([]byte{common.StorePrefixShardDistribution})
	if err != nil {
		return err
	}

	s.shardDistributionStorage = objectstorage.New(
		distStore,
		shardDistributionFactory,
		objectstorage.CacheTime(time.Duration(5)*time.Minute),
		objectstorage.PersistenceEnabled(true),
		objectstorage.StoreOnCreation(true),
	)

	return nil
}

// Factory functions for objectstorage
func shardFactory(key []byte, data []byte) (objectstorage.StorableObject, error) {
	shard := &Shard{}
	if err := shard.Deserialize(data); err != nil {
		return nil, err
	}
	return shard, nil
}

func shardDistributionFactory(key []byte, data []byte) (objectstorage.StorableObject, error) {
	dist := &ShardDistribution{}
	if err := dist.Deserialize(data); err != nil {
		return nil, err
	}
	return dist, nil
}

// ... rest of existing Storage methods ...