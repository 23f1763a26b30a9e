// Package household groups managed accounts under one roof so trades can be
// optimized across tax treatments: loss harvesting in taxable accounts, asset
// location moves between account types, and a shared annual gains budget.
package household

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/loom/internal/domain"
	"github.com/google/uuid"
)

// MemberRelationship is a member's relationship to the primary member.
type MemberRelationship string

const (
	RelationshipPrimary   MemberRelationship = "PRIMARY"
	RelationshipSpouse    MemberRelationship = "SPOUSE"
	RelationshipChild     MemberRelationship = "CHILD"
	RelationshipDependent MemberRelationship = "DEPENDENT"
)

// Member is one person in the household.
type Member struct {
	ID           string                          `json:"id"`
	Name         string                          `json:"name"`
	Relationship MemberRelationship              `json:"relationship"`
	TaxSettings  *domain.TaxOptimizationSettings `json:"tax_settings,omitempty"`
}

// AccountTaxType classifies an account's tax treatment.
type AccountTaxType string

const (
	// AccountTaxable is a regular brokerage account.
	AccountTaxable AccountTaxType = "TAXABLE"
	// AccountTaxDeferred covers traditional IRA and 401(k) style accounts.
	AccountTaxDeferred AccountTaxType = "TAX_DEFERRED"
	// AccountTaxExempt covers Roth style accounts.
	AccountTaxExempt AccountTaxType = "TAX_EXEMPT"
)

// Household is a set of managed accounts owned by one or more members.
type Household struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []Member `json:"members"`
	// Accounts maps account id to the account.
	Accounts map[string]*domain.UnifiedManagedAccount `json:"accounts"`
	// Ownership maps account id to the owning member ids.
	Ownership map[string][]string `json:"ownership"`
	// TaxTypes maps account id to its tax treatment.
	TaxTypes map[string]AccountTaxType `json:"tax_types"`
	// TaxSettings are household-level settings; they gate the shared budget
	// pass over generated trades.
	TaxSettings *domain.TaxOptimizationSettings `json:"tax_settings,omitempty"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// NewHousehold creates a household with its primary member.
func NewHousehold(name, primaryMemberName string) *Household {
	now := time.Now().UTC()
	return &Household{
		ID:   fmt.Sprintf("household-%s", uuid.NewString()),
		Name: name,
		Members: []Member{{
			ID:           fmt.Sprintf("member-%s", uuid.NewString()),
			Name:         primaryMemberName,
			Relationship: RelationshipPrimary,
		}},
		Accounts:  make(map[string]*domain.UnifiedManagedAccount),
		Ownership: make(map[string][]string),
		TaxTypes:  make(map[string]AccountTaxType),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMember adds a member and returns it.
func (h *Household) AddMember(name string, relationship MemberRelationship) Member {
	m := Member{
		ID:           fmt.Sprintf("member-%s", uuid.NewString()),
		Name:         name,
		Relationship: relationship,
	}
	h.Members = append(h.Members, m)
	h.UpdatedAt = time.Now().UTC()
	return m
}

// Member looks up a member by id.
func (h *Household) Member(id string) (Member, bool) {
	for _, m := range h.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// AddAccount attaches an account to the household under the given owners and
// tax treatment. All owner ids must refer to existing members.
func (h *Household) AddAccount(account *domain.UnifiedManagedAccount, memberIDs []string, taxType AccountTaxType) error {
	if account == nil {
		return domain.NewValidationError("account must not be nil")
	}
	for _, id := range memberIDs {
		if _, ok := h.Member(id); !ok {
			return domain.NewNotFound("household member", id)
		}
	}

	h.Accounts[account.ID] = account
	h.Ownership[account.ID] = append([]string(nil), memberIDs...)
	h.TaxTypes[account.ID] = taxType
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// TotalMarketValue sums the market value of all accounts.
func (h *Household) TotalMarketValue() float64 {
	var total float64
	for _, a := range h.Accounts {
		total += a.TotalMarketValue()
	}
	return total
}

// TotalCashBalance sums the cash balances of all accounts.
func (h *Household) TotalCashBalance() float64 {
	var total float64
	for _, a := range h.Accounts {
		total += a.CashBalance
	}
	return total
}

// AccountsByTaxType returns the accounts with the given treatment, ordered by
// account id so callers iterate deterministically.
func (h *Household) AccountsByTaxType(taxType AccountTaxType) []*domain.UnifiedManagedAccount {
	var out []*domain.UnifiedManagedAccount
	for id, t := range h.TaxTypes {
		if t != taxType {
			continue
		}
		if a, ok := h.Accounts[id]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TaxAdvantagedAccounts returns the tax-deferred accounts followed by the
// tax-exempt ones.
func (h *Household) TaxAdvantagedAccounts() []*domain.UnifiedManagedAccount {
	out := h.AccountsByTaxType(AccountTaxDeferred)
	return append(out, h.AccountsByTaxType(AccountTaxExempt)...)
}

// MemberAccounts returns the accounts owned by the given member, ordered by
// account id.
func (h *Household) MemberAccounts(memberID string) []*domain.UnifiedManagedAccount {
	var out []*domain.UnifiedManagedAccount
	for accountID, owners := range h.Ownership {
		for _, owner := range owners {
			if owner != memberID {
				continue
			}
			if a, ok := h.Accounts[accountID]; ok {
				out = append(out, a)
			}
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
