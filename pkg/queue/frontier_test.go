package queue

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"sitetext/pkg/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestFrontier_AddPop(t *testing.T) {
	f := NewFrontier(testLogger())
	f.Add(&models.Candidate{URL: "https://example.com/a", Depth: 1})

	c, ok := f.Pop()
	if !ok {
		t.Fatal("expected candidate, got closed signal")
	}
	if c.URL != "https://example.com/a" {
		t.Errorf("URL = %q, want %q", c.URL, "https://example.com/a")
	}
	if f.Len() != 0 {
		t.Errorf("Len = %d, want 0", f.Len())
	}
}

func TestFrontier_ShallowerFirst(t *testing.T) {
	f := NewFrontier(testLogger())
	f.Add(&models.Candidate{URL: "deep", Depth: 3})
	f.Add(&models.Candidate{URL: "root", Depth: 0})
	f.Add(&models.Candidate{URL: "mid", Depth: 1})

	var order []int
	for i := 0; i < 3; i++ {
		c, ok := f.Pop()
		if !ok {
			t.Fatal("unexpected close")
		}
		order = append(order, c.Depth)
	}
	for i := 1; i < len(order); i++ {
		if order[i] < order[i-1] {
			t.Errorf("pop order not by depth: %v", order)
		}
	}
}

func TestFrontier_PopBlocksUntilAdd(t *testing.T) {
	f := NewFrontier(testLogger())
	done := make(chan *models.Candidate, 1)

	go func() {
		c, _ := f.Pop()
		done <- c
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before Add")
	case <-time.After(20 * time.Millisecond):
	}

	f.Add(&models.Candidate{URL: "https://example.com/x"})

	select {
	case c := <-done:
		if c == nil || c.URL != "https://example.com/x" {
			t.Errorf("unexpected candidate: %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Add")
	}
}

func TestFrontier_CloseDrains(t *testing.T) {
	f := NewFrontier(testLogger())
	f.Add(&models.Candidate{URL: "a"})
	f.Close()

	// Remaining item still drains after close
	if _, ok := f.Pop(); !ok {
		t.Fatal("expected queued item after close")
	}
	// Then closed-and-empty
	if c, ok := f.Pop(); ok {
		t.Fatalf("expected (nil, false) after drain, got %+v", c)
	}

	// Adds after close are dropped and reported to the caller
	if f.Add(&models.Candidate{URL: "late"}) {
		t.Error("Add after close should return false")
	}
	if f.Len() != 0 {
		t.Errorf("Len after post-close Add = %d, want 0", f.Len())
	}
}

func TestFrontier_AddReportsAcceptance(t *testing.T) {
	f := NewFrontier(testLogger())
	if !f.Add(&models.Candidate{URL: "a"}) {
		t.Error("Add on open frontier should return true")
	}
	f.Close()
	if f.Add(&models.Candidate{URL: "b"}) {
		t.Error("Add on closed frontier should return false")
	}
}

func TestFrontier_CloseWakesWaiters(t *testing.T) {
	f := NewFrontier(testLogger())
	var wg sync.WaitGroup
	results := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := f.Pop()
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	f.Close()
	wg.Wait()
	close(results)

	for ok := range results {
		if ok {
			t.Error("waiter should observe closed frontier")
		}
	}
}
