package kapytal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxNameLength = 64

// PathSeparator separates the names of tree entities (categories, account
// items) in their unique path from root.
const PathSeparator = "/"

// CategoryKind constrains which cash transaction directions may reference a
// category.
type CategoryKind int

const (
	IncomeCategory CategoryKind = iota
	ExpenseCategory
	DualPurposeCategory // valid for both incomes and expenses
)

func (k CategoryKind) String() string {
	switch k {
	case IncomeCategory:
		return "income"
	case ExpenseCategory:
		return "expense"
	case DualPurposeCategory:
		return "income-and-expense"
	default:
		return "unknown"
	}
}

// ParseCategoryKind parses a category kind name.
func ParseCategoryKind(s string) (CategoryKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return IncomeCategory, nil
	case "expense":
		return ExpenseCategory, nil
	case "income-and-expense", "both":
		return DualPurposeCategory, nil
	default:
		return 0, newValidationError("unknown category kind %q", s)
	}
}

// accepts reports whether the kind is compatible with a transaction direction.
func (k CategoryKind) accepts(typ CashTransactionType) bool {
	switch typ {
	case CashIncome:
		return k == IncomeCategory || k == DualPurposeCategory
	case CashExpense:
		return k == ExpenseCategory || k == DualPurposeCategory
	default:
		return false
	}
}

// Category is a tree node grouping cash transactions. Parent and children are
// stored as UUID references into the ledger's category arena, never as owning
// pointers, so moves and deletes cannot leave dangling cycles. Category UUIDs
// are process-local: bundles reference categories by path.
type Category struct {
	id       uuid.UUID
	name     string
	kind     CategoryKind
	parent   uuid.UUID // uuid.Nil for a root category
	children []uuid.UUID
	created  time.Time
	edited   time.Time
}

// ID returns the category's process-local UUID.
func (c *Category) ID() uuid.UUID { return c.id }

// Name returns the category's name (unique among its siblings).
func (c *Category) Name() string { return c.name }

// Kind returns the category's kind.
func (c *Category) Kind() CategoryKind { return c.kind }

// ParentID returns the UUID of the parent category, or uuid.Nil for a root.
func (c *Category) ParentID() uuid.UUID { return c.parent }

// ChildIDs returns the ordered UUIDs of the category's children.
func (c *Category) ChildIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(c.children))
	copy(out, c.children)
	return out
}

func (c *Category) String() string { return c.name }

// Tag is a flat label shared by reference across transactions, keyed by its
// case-sensitive name.
type Tag struct {
	id      uuid.UUID
	name    string
	created time.Time
}

func (t *Tag) ID() uuid.UUID { return t.id }
func (t *Tag) Name() string  { return t.name }

func (t *Tag) String() string { return t.name }

// Payee is the counterparty of a cash transaction, keyed by its
// case-sensitive name.
type Payee struct {
	id      uuid.UUID
	name    string
	created time.Time
}

func (p *Payee) ID() uuid.UUID { return p.id }
func (p *Payee) Name() string  { return p.name }

func (p *Payee) String() string { return p.name }

// validateFlatName checks the name of a flat entity (tag, payee). The colon
// is reserved for the split-tag syntax of the UI layer.
func validateFlatName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if strings.Contains(name, ":") {
		return newValidationError("name %q must not contain ':'", name)
	}
	return nil
}

// validateTreeName checks the name of a tree entity (category, account item).
func validateTreeName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if strings.Contains(name, PathSeparator) {
		return newValidationError("name %q must not contain %q", name, PathSeparator)
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return newValidationError("name must not be empty")
	}
	if len(name) > maxNameLength {
		return newValidationError("name %q is longer than %d characters", name, maxNameLength)
	}
	if name != strings.TrimSpace(name) {
		return newValidationError("name %q must not have leading or trailing whitespace", name)
	}
	return nil
}

// splitPath splits "Food/Groceries" into ("Food", "Groceries"). The parent
// part is empty for a root path.
func splitPath(path string) (parent, name string) {
	i := strings.LastIndex(path, PathSeparator)
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// joinPath appends a name to a parent path.
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}

var _ fmt.Stringer = (*Category)(nil)
