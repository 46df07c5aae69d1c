package model

import (
	"testing"

	"github.com/forgo/sublet/api/internal/enum"
	"github.com/forgo/sublet/api/internal/schema"
)

func frozenRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	reg := schema.NewRegistry(enum.Default())
	if err := RegisterSchemas(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	return reg
}

func TestSchemas_RegisterAndFreeze(t *testing.T) {
	t.Parallel()

	reg := frozenRegistry(t)

	if got := len(reg.Names()); got != len(Schemas()) {
		t.Errorf("expected %d schemas, got %d", len(Schemas()), got)
	}
}

func TestSchemas_ErrorCodeEnumMatchesTaxonomy(t *testing.T) {
	t.Parallel()

	enums := enum.Default()
	tokens := enums.Tokens(enum.ErrorCode)
	if len(tokens) != len(ErrorCodes) {
		t.Fatalf("expected %d error codes, got %d", len(ErrorCodes), len(tokens))
	}
	for _, code := range ErrorCodes {
		if !enums.IsMember(enum.ErrorCode, string(code)) {
			t.Errorf("%s missing from %s enumeration", code, enum.ErrorCode)
		}
	}
}

func TestSchemas_OnlyUserAuthBearsCredentials(t *testing.T) {
	t.Parallel()

	reg := frozenRegistry(t)

	for _, name := range reg.Names() {
		want := name == SchemaUserAuth
		if got := reg.IsCredentialBearing(name); got != want {
			t.Errorf("%s: expected credential-bearing=%v, got %v", name, want, got)
		}
	}
}

func TestSchemas_PostVariantsCarryDiscriminator(t *testing.T) {
	t.Parallel()

	reg := frozenRegistry(t)

	for token, name := range map[PostType]string{
		PostTypeHousingRequest: SchemaHousingRequestPost,
		PostTypeSublet:         SchemaSubletPost,
	} {
		fields, err := reg.Describe(name)
		if err != nil {
			t.Fatalf("describe %s: %v", name, err)
		}
		var found bool
		for _, f := range fields {
			if f.Name == PostDiscriminator {
				found = true
				if !f.Type.Equal(schema.Literal(string(token))) || f.Optional {
					t.Errorf("%s.%s should be the required literal %q", name, PostDiscriminator, token)
				}
			}
		}
		if !found {
			t.Errorf("%s does not declare %s", name, PostDiscriminator)
		}
	}
}

func TestSchemas_PostAuthorDeclaredAsProjection(t *testing.T) {
	t.Parallel()

	reg := frozenRegistry(t)

	pairs := reg.Projections()
	if len(pairs) != 1 || pairs[0] != [2]string{SchemaPostAuthor, SchemaUser} {
		t.Errorf("unexpected projections: %v", pairs)
	}
}
