package kapytal

import (
	"time"

	"github.com/google/uuid"
)

// AccountItemType discriminates the three kinds of account-tree nodes.
type AccountItemType int

const (
	AccountGroupItem AccountItemType = iota
	CashAccountItem
	SecurityAccountItem
)

func (t AccountItemType) String() string {
	switch t {
	case AccountGroupItem:
		return "account-group"
	case CashAccountItem:
		return "cash-account"
	case SecurityAccountItem:
		return "security-account"
	default:
		return "unknown"
	}
}

// AccountItem is a node of the account hierarchy: an AccountGroup folder or a
// Cash/Security account leaf. The tree is stored arena-style in the ledger;
// parent and children are UUID references.
type AccountItem interface {
	ID() uuid.UUID
	Name() string
	ParentID() uuid.UUID
	Type() AccountItemType

	node() *accountNode
}

// accountNode carries the identity fields shared by all account items.
type accountNode struct {
	id       uuid.UUID
	name     string
	parent   uuid.UUID // uuid.Nil for a root item
	children []uuid.UUID
	created  time.Time
	edited   time.Time
}

func (n *accountNode) ID() uuid.UUID       { return n.id }
func (n *accountNode) Name() string        { return n.name }
func (n *accountNode) ParentID() uuid.UUID { return n.parent }
func (n *accountNode) node() *accountNode  { return n }

// ChildIDs returns the ordered UUIDs of the item's children. Only account
// groups ever have children.
func (n *accountNode) ChildIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(n.children))
	copy(out, n.children)
	return out
}

// AccountGroup is a folder grouping accounts and other groups.
type AccountGroup struct {
	accountNode
}

func (g *AccountGroup) Type() AccountItemType { return AccountGroupItem }

// CashAccount holds cash in a single currency fixed at creation. Its balance
// is derived from the transactions affecting it.
type CashAccount struct {
	accountNode
	cur *Currency
}

func (a *CashAccount) Type() AccountItemType { return CashAccountItem }

// Currency returns the account's native currency.
func (a *CashAccount) Currency() *Currency { return a.cur }

// SecurityAccount holds securities. It owns no currency; its contents are
// derived from the security transactions referencing it.
type SecurityAccount struct {
	accountNode
}

func (a *SecurityAccount) Type() AccountItemType { return SecurityAccountItem }

var (
	_ AccountItem = (*AccountGroup)(nil)
	_ AccountItem = (*CashAccount)(nil)
	_ AccountItem = (*SecurityAccount)(nil)
)
