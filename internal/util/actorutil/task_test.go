package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackgroundTaskSuccess(t *testing.T) {

	var got string
	NewBackgroundTask(func() (*string, error) {
		v := "done"
		return &v, nil
	}).OnSuccess(func(v string) { got = v }).Run()

	assert.Equal(t, "done", got)
}

func TestBackgroundTaskRecoverFeedsOnSuccess(t *testing.T) {

	var got string
	NewBackgroundTask(func() (*string, error) {
		return nil, errors.New("boom")
	}).Recover(func(err error) string {
		return "recovered: " + err.Error()
	}).OnSuccess(func(v string) { got = v }).Run()

	assert.Equal(t, "recovered: boom", got)
}

func TestBackgroundTaskTimeout(t *testing.T) {

	var got error
	var succeeded bool
	start := time.Now()
	NewBackgroundTask(func() (*string, error) {
		time.Sleep(2 * time.Second)
		v := "late"
		return &v, nil
	}).WithTimeout(50 * time.Millisecond).
		OnError(func(err error) { got = err }).
		OnSuccess(func(string) { succeeded = true }).
		Run()

	assert.Error(t, got)
	assert.False(t, succeeded)
	assert.Less(t, time.Since(start), time.Second)
}
