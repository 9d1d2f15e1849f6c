package storage

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/iotaledger/hive.go/logger"
)

// GeographicVerificationMethod represents the verification method
type GeographicVerificationMethod int

const (
	VerificationMethodLatency GeographicVerificationMethod = iota
	VerificationMethodZKSTARK
)

// GeographicValidator validates geographic location of nodes
type GeographicValidator struct {
	*logger.WrappedLogger
	verifier       *GeographicVerifier
	latencyChecker *LatencyChecker
	zkVerifier     *ZKSTARKVerifier
	mu             sync.RWMutex
}

// NewGeographicValidator creates a new geographic validator
func NewGeographicValidator(log *logger.Logger, verifier *GeographicVerifier) *GeographicValidator {
	return &GeographicValidator{
		WrappedLogger:  logger.NewWrappedLogger(log),
		verifier:       verifier,
		latencyChecker: NewLatencyChecker(),
		zkVerifier:     NewZKSTARKVerifier(),
	}
}

// ValidateNodeLocation validates a node's claimed geographic location
func (gv *GeographicValidator) ValidateNodeLocation(nodeID string, claimedLocation string, method GeographicVerificationMethod) (*LocationValidationResult, error) {
	switch method {
	case VerificationMethodLatency:
		return gv.validateByLatency(nodeID, claimedLocation)
	case VerificationMethodZKSTARK:
		return gv.validateByZKSTARK(nodeID, claimedLocation)
	default:
		return nil, errors.New("unknown verification method")
	}
}

// LocationValidationResult contains the result of location validation
type LocationValidationResult struct {
	NodeID           string
	ClaimedLocation  string
	VerifiedLocation string
	Method           GeographicVerificationMethod
	Confidence       float64
	Timestamp        time.Time
	Details          map[string]interface{}
}

// validateByLatency validates location using latency measurements
func (gv *GeographicValidator) validateByLatency(nodeID string, claimedLocation string) (*LocationValidationResult, error) {
	measurements, err := gv.latencyChecker.MeasureLatencies(nodeID, claimedLocation)
	if err != nil {
		return nil, err
	}

	// Analyze measurements to determine actual location
	actualLocation, confidence := gv.analyzeLatencyMeasurements(measurements, claimedLocation)

	return &LocationValidationResult{
		NodeID:           nodeID,
		ClaimedLocation:  claimedLocation,
		VerifiedLocation: actualLocation,
		Method:           VerificationMethodLatency,
		Confidence:       confidence,
		Timestamp:        time.Now(),
		Details: map[string]interface{}{
			"measurements": measurements,
		},
	}, nil
}

// validateByZKSTARK validates location using zero-knowledge proofs
func (gv *GeographicValidator) validateByZKSTARK(nodeID string, claimedLocation string) (*LocationValidationResult, error) {
	proof, err := gv.zkVerifier.RequestLocationProof(nodeID, claimedLocation)
	if err != nil {
		// Fallback to latency-based verification
		gv.LogWarnf("ZK-STARK verification failed, falling back to latency: %v", err)
		return gv.validateByLatency(nodeID, claimedLocation)
	}

	// Verify the proof
	verified, confidence := gv.zkVerifier.VerifyProof(proof)
	
	return &LocationValidationResult{
		NodeID:           nodeID,
		ClaimedLocation:  claimedLocation,
		VerifiedLocation: claimedLocation, // ZK proof doesn't reveal actual location
		Method:           VerificationMethodZKSTARK,
		Confidence:       confidence,
		Timestamp:        time.Now(),
		Details: map[string]interface{}{
			"proofVerified": verified,
		},
	}, nil
}

// analyzeLatencyMeasurements analyzes latency data to determine location
func (gv *GeographicValidator) analyzeLatencyMeasurements(measurements map[string]time.Duration, claimedLocation string) (string, float64) {
	// This is a simplified version. In production, use more sophisticated algorithms
	expectedLatencies := gv.verifier.GetExpectedLatencies(claimedLocation)
	
	var totalDeviation float64
	var measurementCount int
	
	for location, measured := range measurements {
		if expected, ok := expectedLatencies[location]; ok {
			deviation := float64(measured-expected) / float64(expected)
			totalDeviation += deviation * deviation
			measurementCount++
		}
	}
	
	if measurementCount == 0 {
		return claimedLocation, 0.0
	}
	
	// Calculate confidence based on deviation
	avgDeviation := totalDeviation / float64(measurementCount)
	confidence := 1.0 / (1.0 + avgDeviation)
	
	// If confidence is high, trust the claimed location
	if confidence > 0.8 {
		return claimedLocation, confidence
	}
	
	// Otherwise, try to determine actual location
	bestMatch := gv.findBestLocationMatch(measurements)
	return bestMatch, confidence
}

// findBestLocationMatch finds the best matching location based on latencies
func (gv *GeographicValidator) findBestLocationMatch(measurements map[string]time.Duration) string {
	// Simplified implementation
	return "us-east-1" // Default fallback
}

// LatencyChecker performs latency-based location verification
type LatencyChecker struct {
	referenceNodes map[string]string // location -> node address
	mu             sync.RWMutex
}

// NewLatencyChecker creates a new latency checker
func NewLatencyChecker() *LatencyChecker {
	lc := &LatencyChecker{
		referenceNodes: make(map[string]string),
	}
	lc.initializeReferenceNodes()
	return lc
}

// initializeReferenceNodes sets up reference nodes for latency checking
func (lc *LatencyChecker) initializeReferenceNodes() {
	lc.referenceNodes = map[string]string{
		"us-east-1":      "ref-us-east-1.lockbox.network:8080",
		"us-west-1":      "ref-us-west-1.lockbox.network:8080",
		"eu-west-1":      "ref-eu-west-1.lockbox.network:8080",
		"ap-south-1":     "ref-ap-south-1.lockbox.network:8080",
		"ap-northeast-1": "ref-ap-northeast-1.lockbox.network:8080",
	}
}

// MeasureLatencies measures latencies from a node to reference points
func (lc *LatencyChecker) MeasureLatencies(nodeID string, fromLocation string) (map[string]time.Duration, error) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	measurements := make(map[string]time.Duration)
	
	for location, refNode := range lc.referenceNodes {
		if location == fromLocation {
			continue // Skip self
		}
		
		latency, err := lc.measureLatency(nodeID, refNode)
		if err != nil {
			continue // Skip failed measurements
		}
		
		measurements[location] = latency
	}
	
	return measurements, nil
}

// measureLatency measures latency between node and reference point
func (lc *LatencyChecker) measureLatency(nodeID string, refNode string) (time.Duration, error) {
	// In production, this would perform actual network latency measurement
	// For now, simulate with a ping-like operation
	
	start := time.Now()
	
	conn, err := net.DialTimeout("tcp", refNode, 5*time.Second)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	
	// Simple echo test
	testData := []byte("ping")
	if _, err := conn.Write(testData); err != nil {
		return 0, err
	}
	
	response := make([]byte, len(testData))
	if _, err := conn.Read(response); err != nil {
		return 0, err
	}
	
	return time.Since(start), nil
}

// ZKSTARKVerifier handles zero-knowledge proof verification
type ZKSTARKVerifier struct {
	proofCache map[string]*LocationProof
	mu         sync.RWMutex
}

// LocationProof represents a zero-knowledge location proof
type LocationProof struct {
	NodeID    string
	Location  string
	Proof     []byte
	Timestamp time.Time
}

// NewZKSTARKVerifier creates a new ZK-STARK verifier
func NewZKSTARKVerifier() *ZKSTARKVerifier {
	return &ZKSTARKVerifier{
		proofCache: make(map[string]*LocationProof),
	}
}

// RequestLocationProof requests a location proof from a node
func (zv *ZKSTARKVerifier) RequestLocationProof(nodeID string, location string) (*LocationProof, error) {
	// In production, this would request actual ZK proof from the node
	// For now, simulate the process
	
	proof := &LocationProof{
		NodeID:    nodeID,
		Location:  location,
		Proof:     []byte("simulated-zk-proof"),
		Timestamp: time.Now(),
	}
	
	zv.mu.Lock()
	zv.proofCache[nodeID] = proof
	zv.mu.Unlock()
	
	return proof, nil
}

// VerifyProof verifies a location proof
func (zv *ZKSTARKVerifier) VerifyProof(proof *LocationProof) (bool, float64) {
	// In production, this would perform actual ZK-STARK verification
	// For now, simulate verification with high confidence
	
	// Check proof age
	if time.Since(proof.Timestamp) > 5*time.Minute {
		return false, 0.0
	}
	
	// Simulate verification
	return true, 0.95
}

// GetExpectedLatencies returns expected latencies from a location
func (gv *GeographicVerifier) GetExpectedLatencies(fromLocation string) map[string]time.Duration {
	gv.mu.RLock()
	defer gv.mu.RUnlock()

	region := gv.getRegionForLocation(fromLocation)
	if region == "" {
		return nil
	}

	if r, ok := gv.regions[region]; ok {
		return r.Latencies
	}

	return nil
}