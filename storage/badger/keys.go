package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/finprep/qbank/core"
)

// Key prefixes for different data types
const (
	questionRecordPrefix = "quesrec"
	questionFprPrefix    = "quesfpr"
	questionTopicPrefix  = "questop"
	stagedRecordPrefix   = "stagrec"
	batchRecordPrefix    = "batrec"
)

// makeQuestionKey generates a key for a question record by ID.
func makeQuestionKey(questionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", questionRecordPrefix, questionID))
}

// makeFingerprintKey generates a composite key for the fingerprint index.
// Format: prefix:fingerprint:questionID
func makeFingerprintKey(fp core.Fingerprint, questionID string) []byte {
	prefix := questionFprPrefix + ":"
	buf := make([]byte, len(prefix)+8+len(questionID))
	offset := copy(buf, prefix)
	// BigEndian so all entries for one fingerprint are key-adjacent
	binary.BigEndian.PutUint64(buf[offset:], uint64(fp))
	offset += 8
	copy(buf[offset:], questionID)
	return buf
}

// makePartialFingerprintKey generates a scan prefix for one fingerprint.
func makePartialFingerprintKey(fp core.Fingerprint) []byte {
	prefix := questionFprPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(fp))
	return buf
}

// makeTopicKey generates a composite key for the topic index.
// Format: prefix:topic:questionID
func makeTopicKey(topic, questionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", questionTopicPrefix, topic, questionID))
}

// makePartialTopicKey generates a scan prefix for one topic.
func makePartialTopicKey(topic string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", questionTopicPrefix, topic))
}

// makeStagedKey generates a key for a staged question.
// Format: prefix:batchID:questionID
func makeStagedKey(batchID, questionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", stagedRecordPrefix, batchID, questionID))
}

// makePartialStagedKey generates a scan prefix for one batch.
func makePartialStagedKey(batchID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", stagedRecordPrefix, batchID))
}

// makeBatchKey generates a key for an upload batch record.
func makeBatchKey(batchID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", batchRecordPrefix, batchID))
}
