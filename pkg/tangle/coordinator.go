// Package tangle provides coordinator-free consensus implementation
package tangle

import (
    "context"
    "sync"
    "time"

    "github.com/iotaledger/hornet/v2/pkg/common"
    "github.com/iotaledger/hornet/v2/pkg/model/storage"
    iotago "github.com/iotaledger/iota.go/v3"
)

// CoordinatorFreeValidator implements validation without coordinator
type CoordinatorFreeValidator struct {
    storage          *storage.Storage
    consensusManager *ConsensusManager
    mu               sync.RWMutex
}

// NewCoordinatorFreeValidator creates a new coordinator-free validator
func NewCoordinatorFreeValidator(storage *storage.Storage) *CoordinatorFreeValidator {
    return &CoordinatorFreeValidator{
        storage:          storage,
        consensusManager: NewConsensusManager(storage),
    }
}

// ValidateMilestone validates a milestone without coordinator dependency
func (v *CoordinatorFreeValidator) ValidateMilestone(ctx context.Context, milestone *iotago.Milestone) error {
    v.mu.RLock()
    defer v.mu.RUnlock()

    // Implement coordicide validation logic
    if err := v.consensusManager.ValidateConsensus(ctx, milestone); err != nil {
        return err
    }

    return nil
}

// ConsensusManager handles coordinator-free consensus
type ConsensusManager struct {
    storage           *storage.Storage
    validators        map[string]*Validator
    consensusLock     sync.RWMutex
    minValidators     int
    consensusTimeout  time.Duration
}

// NewConsensusManager creates a new consensus manager
func NewConsensusManager(storage *storage.Storage) *ConsensusManager {
    return &ConsensusManager{
        storage:          storage,
        validators:       make(map[string]*Validator),
        minValidators:    3,
        consensusTimeout: 10 * time.Second,
    }
}

// ValidateConsensus performs coordinator-free consensus validation
func (cm *ConsensusManager) ValidateConsensus(ctx context.Context, milestone *iotago.Milestone) error {
    cm.consensusLock.RLock()
    defer cm.consensusLock.RUnlock()

    // Check if we have minimum validators
    if len(cm.validators) < cm.minValidators {
        return common.ErrCritical.Wrap(ErrInsufficientValidators)
    }

    // Implement FPC (Fast Probabilistic Consensus) or similar
    votes := make(map[string]bool)
    for id, validator := range cm.validators {
        vote, err := validator.Vote(ctx, milestone)
        if err != nil {
            continue
        }
        votes[id] = vote
    }

    // Check consensus threshold
    positiveVotes := 0
    for _, vote := range votes {
        if vote {
            positiveVotes++
        }
    }

    threshold := len(votes) * 2 / 3 // 2/3 majority
    if positiveVotes < threshold {
        return ErrConsensusNotReached
    }

    return nil
}

// Validator represents a network validator
type Validator struct {
    ID        string
    PublicKey []byte
    Weight    float64
    Active    bool
}

// Vote performs voting on a milestone
func (v *Validator) Vote(ctx context.Context, milestone *iotago.Milestone) (bool, error) {
    // Implement voting logic based on milestone validity
    // This is a simplified version - real implementation would include
    // cryptographic verification and more complex consensus rules
    
    // Check milestone structure
    if milestone.Index == 0 {
        return false, nil
    }

    // Check parents validity
    if len(milestone.Parents) == 0 {
        return false, nil
    }

    // Additional validation logic here
    
    return true, nil
}