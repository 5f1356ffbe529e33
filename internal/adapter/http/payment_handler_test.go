package http

import (
	"net/http"
	"testing"

	ucPayment "finapp-backend/internal/usecase/payment"
)

type paymentList struct {
	Payments []ucPayment.PaymentDTO `json:"payments"`
	Count    int                    `json:"count"`
}

func TestRecordPayment_Success(t *testing.T) {
	s := newStack(t)
	l := s.approvedLoan(t)

	rec := s.do(http.MethodPost, "/v1/loans/"+l.LoanID+"/payments", tokClient, map[string]any{
		"amount": "8906.67",
	})
	wantStatus(t, rec, http.StatusCreated)

	res := decode[ucPayment.RecordResult](t, rec)
	if res.Payment.Amount != "8906.67" || res.Payment.Status != "SUCCESS" || res.Payment.Method != "UPI" {
		t.Fatalf("unexpected payment: %+v", res.Payment)
	}
	if len(res.Payment.TransactionID) != 19 {
		t.Fatalf("transaction id = %q, want generated TXN reference", res.Payment.TransactionID)
	}
	if res.Loan.PaidAmount != "8906.67" || res.Loan.RemainingAmount != "97973.33" || res.Loan.Status != "APPROVED" {
		t.Fatalf("unexpected balances: %+v", res.Loan)
	}
}

func TestRecordPayment_PayoffCompletesLoan(t *testing.T) {
	s := newStack(t)
	l := s.approvedLoan(t)

	rec := s.do(http.MethodPost, "/v1/loans/"+l.LoanID+"/payments", tokClient, map[string]any{
		"amount": 200000,
	})
	wantStatus(t, rec, http.StatusCreated)

	res := decode[ucPayment.RecordResult](t, rec)
	if res.Requested != "200000.00" || res.Payment.Amount != "106880.00" {
		t.Fatalf("payment should be capped at the balance: requested=%s applied=%s", res.Requested, res.Payment.Amount)
	}
	if res.Loan.Status != "COMPLETED" || res.Loan.RemainingAmount != "0.00" {
		t.Fatalf("loan should be completed: %+v", res.Loan)
	}

	rec = s.do(http.MethodPost, "/v1/loans/"+l.LoanID+"/payments", tokClient, map[string]any{"amount": 1})
	wantStatus(t, rec, http.StatusConflict)
}

func TestRecordPayment_Errors(t *testing.T) {
	s := newStack(t)
	pending := s.createLoan(t)
	active := s.approvedLoan(t)

	tests := []struct {
		name  string
		loan  string
		token string
		body  map[string]any
		want  int
	}{
		{"pending loan", pending.LoanID, tokClient, map[string]any{"amount": 100}, http.StatusConflict},
		{"other client", active.LoanID, tokStranger, map[string]any{"amount": 100}, http.StatusForbidden},
		{"admin", active.LoanID, tokAdmin, map[string]any{"amount": 100}, http.StatusForbidden},
		{"zero amount", active.LoanID, tokClient, map[string]any{"amount": 0}, http.StatusUnprocessableEntity},
		{"three decimals", active.LoanID, tokClient, map[string]any{"amount": "10.005"}, http.StatusUnprocessableEntity},
		{"unknown status", active.LoanID, tokClient, map[string]any{"amount": 10, "status": "DONE"}, http.StatusUnprocessableEntity},
		{"malformed loan id", "abc", tokClient, map[string]any{"amount": 10}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/v1/loans/"+tt.loan+"/payments", tt.token, tt.body)
			wantStatus(t, rec, tt.want)
		})
	}

	// nothing above moved the balance
	rec := s.do(http.MethodGet, "/v1/loans/"+active.LoanID, tokClient, nil)
	wantStatus(t, rec, http.StatusOK)
	if got := decode[struct {
		Paid string `json:"paid_amount"`
	}](t, rec); got.Paid != "0.00" {
		t.Fatalf("paid = %s, want 0.00", got.Paid)
	}
}

func TestPayments_Queries(t *testing.T) {
	s := newStack(t)
	l := s.approvedLoan(t)

	rec := s.do(http.MethodGet, "/v1/loans/"+l.LoanID+"/payments/status", tokClient, nil)
	wantStatus(t, rec, http.StatusOK)
	if st := decode[ucPayment.StatusDTO](t, rec); st.PaidInPeriod || st.Today != nil {
		t.Fatalf("nothing paid yet: %+v", st)
	}

	wantStatus(t, s.do(http.MethodPost, "/v1/loans/"+l.LoanID+"/payments", tokClient,
		map[string]any{"amount": "8906.67"}), http.StatusCreated)
	// a failed attempt is recorded but moves nothing
	wantStatus(t, s.do(http.MethodPost, "/v1/loans/"+l.LoanID+"/payments", tokClient,
		map[string]any{"amount": "100", "status": "FAILED"}), http.StatusCreated)

	rec = s.do(http.MethodGet, "/v1/loans/"+l.LoanID+"/payments/status", tokClient, nil)
	wantStatus(t, rec, http.StatusOK)
	st := decode[ucPayment.StatusDTO](t, rec)
	if !st.PaidInPeriod || st.Today == nil || st.DueDay != 10 {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.RemainingAmount != "97973.33" {
		t.Fatalf("remaining = %s, want 97973.33", st.RemainingAmount)
	}

	rec = s.do(http.MethodGet, "/v1/loans/"+l.LoanID+"/payments", tokAdmin, nil)
	wantStatus(t, rec, http.StatusOK)
	if got := decode[paymentList](t, rec); got.Count != 2 {
		t.Fatalf("admin sees %d payments, want 2", got.Count)
	}

	rec = s.do(http.MethodGet, "/v1/loans/"+l.LoanID+"/payments", tokStranger, nil)
	wantStatus(t, rec, http.StatusForbidden)

	rec = s.do(http.MethodGet, "/v1/me/payments", tokClient, nil)
	wantStatus(t, rec, http.StatusOK)
	if got := decode[paymentList](t, rec); got.Count != 2 {
		t.Fatalf("client sees %d payments, want 2", got.Count)
	}

	rec = s.do(http.MethodGet, "/v1/me/payments", tokAdmin, nil)
	wantStatus(t, rec, http.StatusForbidden)
}
