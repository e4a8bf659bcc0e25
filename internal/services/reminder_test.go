package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/models"
)

// fakeDispatcher records sends and can be told to fail per recipient.
type fakeDispatcher struct {
	mu     sync.Mutex
	sent   []string // recipients in send order
	failTo map[string]bool
}

func (f *fakeDispatcher) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[to] {
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, to)
	return nil
}

func TestComputeDue(t *testing.T) {
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{DueDate: due, BalanceDue: 500}

	cases := map[int]string{
		-7: models.ReminderBeforeDue7,
		-3: models.ReminderBeforeDue3,
		0:  models.ReminderOnDue,
		7:  models.ReminderOverdue7,
		14: models.ReminderOverdue14,
		30: models.ReminderOverdue30,
	}
	for offset, want := range cases {
		got, ok := ComputeDue(inv, due.AddDate(0, 0, offset))
		require.True(t, ok, "offset %d", offset)
		assert.Equal(t, want, got, "offset %d", offset)
	}
	for _, offset := range []int{-8, -2, 1, 13, 29, 31, 90} {
		_, ok := ComputeDue(inv, due.AddDate(0, 0, offset))
		assert.False(t, ok, "offset %d must not trigger", offset)
	}
}

func TestSendReminderBeforeDueScenario(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)

	disp := &fakeDispatcher{}
	sched := NewScheduler(conn, disp, clock.Fixed(due.AddDate(0, 0, -3)))

	res, err := sched.SendReminder(inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReminderBeforeDue3, res.ReminderType)
	assert.Equal(t, "sent", res.Status)
	require.Len(t, disp.sent, 1)

	// same day, same milestone: already sent
	res, err = sched.SendReminder(inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "skipped", res.Status)
	assert.Equal(t, "already sent", res.Error)
	assert.Len(t, disp.sent, 1)

	pending, err := sched.PendingReminders()
	require.NoError(t, err)
	assert.Empty(t, pending)

	var sent int64
	conn.Model(&models.ReminderRecord{}).
		Where("invoice_id = ? AND reminder_type = ? AND status = ?",
			inv.ID, models.ReminderBeforeDue3, models.ReminderStatusSent).
		Count(&sent)
	assert.EqualValues(t, 1, sent)
}

func TestSendReminderRejectsExplicitAutomaticType(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)

	disp := &fakeDispatcher{}
	// two days past due: no automatic milestone triggers
	sched := NewScheduler(conn, disp, clock.Fixed(due.AddDate(0, 0, 2)))

	var verr *ValidationError
	for _, rtype := range []string{models.ReminderOverdue7, models.ReminderBeforeDue3, "bogus"} {
		_, err := sched.SendReminder(inv.ID, rtype)
		require.ErrorAs(t, err, &verr, "type %q", rtype)
	}

	// no milestone was claimed or recorded by the rejected requests
	assert.Empty(t, disp.sent)
	var claims, records int64
	conn.Model(&models.ReminderDispatch{}).Count(&claims)
	conn.Model(&models.ReminderRecord{}).Count(&records)
	assert.EqualValues(t, 0, claims)
	assert.EqualValues(t, 0, records)
}

func TestDryRunDoesNotConsumeMilestones(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)

	disp := &fakeDispatcher{}
	sched := NewScheduler(conn, disp, clock.Fixed(due.AddDate(0, 0, -3)))

	// the dry-run path only evaluates: nothing dispatched, claimed, or logged
	pending, err := sched.PendingReminders()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ReminderBeforeDue3, pending[0].ReminderType)

	assert.Empty(t, disp.sent)
	var claims, records int64
	conn.Model(&models.ReminderDispatch{}).Count(&claims)
	conn.Model(&models.ReminderRecord{}).Count(&records)
	assert.EqualValues(t, 0, claims)
	assert.EqualValues(t, 0, records)

	// the real run on the same day still delivers the milestone
	batch, err := sched.SendAll(true)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Sent)
	require.Len(t, disp.sent, 1)

	var sent int64
	conn.Model(&models.ReminderRecord{}).
		Where("invoice_id = ? AND reminder_type = ? AND status = ?",
			inv.ID, models.ReminderBeforeDue3, models.ReminderStatusSent).
		Count(&sent)
	assert.EqualValues(t, 1, sent)
}

func TestConcurrentSendsClaimMilestoneOnce(t *testing.T) {
	conn := setupTestDB(t)
	// one pooled connection keeps in-memory sqlite free of lock errors while
	// the goroutines still race through the scheduler
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)

	disp := &fakeDispatcher{}
	sched := NewScheduler(conn, disp, clock.Fixed(due))

	const workers = 8
	results := make(chan *SendResult, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := sched.SendReminder(inv.ID, "")
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent send: %v", err)
	}

	sent, skipped := 0, 0
	for res := range results {
		switch res.Status {
		case "sent":
			sent++
		case "skipped":
			skipped++
		}
	}
	assert.Equal(t, 1, sent)
	assert.Equal(t, workers-1, skipped)
	assert.Len(t, disp.sent, 1)

	var sentRecords int64
	conn.Model(&models.ReminderRecord{}).
		Where("invoice_id = ? AND reminder_type = ? AND status = ?",
			inv.ID, models.ReminderOnDue, models.ReminderStatusSent).
		Count(&sentRecords)
	assert.EqualValues(t, 1, sentRecords)
	var claims int64
	conn.Model(&models.ReminderDispatch{}).Count(&claims)
	assert.EqualValues(t, 1, claims)
}

func TestSendReminderNoAutomaticDueToday(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)

	sched := NewScheduler(conn, &fakeDispatcher{}, clock.Fixed(due.AddDate(0, 0, -5)))
	_, err := sched.SendReminder(inv.ID, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEligibilityRules(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	sched := NewScheduler(conn, &fakeDispatcher{}, clock.Fixed(due))

	paused := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)
	require.NoError(t, conn.Model(&paused).Update("reminder_paused", true).Error)
	paused.ReminderPaused = true

	ok, reason := sched.IsEligible(&paused, models.ReminderOnDue)
	assert.False(t, ok)
	assert.Equal(t, "reminders paused", reason)

	// manual bypasses pause
	ok, _ = sched.IsEligible(&paused, models.ReminderManual)
	assert.True(t, ok)

	settled := models.Invoice{Status: models.InvoiceStatusPaid, BalanceDue: 0, DueDate: due}
	ok, reason = sched.IsEligible(&settled, models.ReminderManual)
	assert.False(t, ok)
	assert.Equal(t, "no outstanding balance", reason)

	cancelled := models.Invoice{Status: models.InvoiceStatusCancelled, BalanceDue: 300, DueDate: due}
	ok, reason = sched.IsEligible(&cancelled, models.ReminderOnDue)
	assert.False(t, ok)
	assert.Equal(t, "invoice cancelled", reason)
}

func TestManualRemindersAreRepeatable(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)

	disp := &fakeDispatcher{}
	sched := NewScheduler(conn, disp, clock.Fixed(due.AddDate(0, 0, 2)))

	for i := 0; i < 2; i++ {
		res, err := sched.SendReminder(inv.ID, models.ReminderManual)
		require.NoError(t, err)
		assert.Equal(t, "sent", res.Status)
	}
	assert.Len(t, disp.sent, 2)

	var records int64
	conn.Model(&models.ReminderRecord{}).
		Where("invoice_id = ? AND reminder_type = ?", inv.ID, models.ReminderManual).
		Count(&records)
	assert.EqualValues(t, 2, records)

	// manual history never suppresses the automatic milestones
	var claims int64
	conn.Model(&models.ReminderDispatch{}).Count(&claims)
	assert.EqualValues(t, 0, claims)
}

func TestDispatchFailureIsRecordedAndRetriable(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)

	disp := &fakeDispatcher{failTo: map[string]bool{"accounts@sahara.example": true}}
	sched := NewScheduler(conn, disp, clock.Fixed(due))

	res, err := sched.SendReminder(inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "failed", res.Status)
	assert.Contains(t, res.Error, "connection refused")

	var failed models.ReminderRecord
	require.NoError(t, conn.Where("invoice_id = ? AND status = ?", inv.ID, models.ReminderStatusFailed).First(&failed).Error)
	assert.Equal(t, models.ReminderOnDue, failed.ReminderType)
	assert.NotEmpty(t, failed.ErrorDetail)

	// the claim was released, so the milestone can be retried once the
	// dispatcher recovers
	disp.failTo = nil
	res, err = sched.SendReminder(inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "sent", res.Status)
}

func TestBatchContinuesOnFailure(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	broken := models.Client{Name: "Atlas Trekkers", Email: "billing@atlas.example"}
	require.NoError(t, conn.Create(&broken).Error)
	inv1 := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)
	inv2 := models.Invoice{
		ClientID: broken.ID, Currency: "EUR", TotalAmount: 900, BalanceDue: 900,
		Status: models.InvoiceStatusSent, IssueDate: due.AddDate(0, 0, -30), DueDate: due,
	}
	require.NoError(t, conn.Create(&inv2).Error)

	disp := &fakeDispatcher{failTo: map[string]bool{"billing@atlas.example": true}}
	sched := NewScheduler(conn, disp, clock.Fixed(due.AddDate(0, 0, 7)))

	batch, err := sched.SendAll(true)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Sent)
	assert.Equal(t, 1, batch.Failed)
	assert.NotEmpty(t, batch.RunID)
	require.Len(t, batch.Details, 2)
	ids := map[uint]string{}
	for _, d := range batch.Details {
		ids[d.InvoiceID] = d.Status
	}
	assert.Equal(t, "sent", ids[inv1.ID])
	assert.Equal(t, "failed", ids[inv2.ID])

	// re-run the batch: the sent invoice is now deduplicated, the failed
	// one is still retriable
	disp.failTo = nil
	batch, err = sched.SendAll(true)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Sent)
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, 0, batch.Failed)
}

func TestSendSelectedValidatesInput(t *testing.T) {
	conn := setupTestDB(t)
	sched := NewScheduler(conn, &fakeDispatcher{}, clock.System())
	_, err := sched.SendSelected(nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTogglePause(t *testing.T) {
	conn := setupTestDB(t)
	due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	inv := seedInvoice(t, conn, 500, due, models.InvoiceStatusSent)

	sched := NewScheduler(conn, &fakeDispatcher{}, clock.Fixed(due))
	got, err := sched.TogglePause(inv.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderPaused)

	// paused invoices drop out of the pending view
	pending, err := sched.PendingReminders()
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err = sched.TogglePause(inv.ID)
	require.NoError(t, err)
	assert.False(t, got.ReminderPaused)

	_, err = sched.TogglePause(9999)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}
