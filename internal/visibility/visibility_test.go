package visibility

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hirekit/hirekit/internal/models"
)

func newActor(class Class) Actor {
	return Actor{ID: uuid.Must(uuid.NewV7()), Class: class}
}

func TestVisible(t *testing.T) {
	regular := newActor(ClassRegular)
	main := newActor(ClassMainSuperadmin)
	otherMain := newActor(ClassMainSuperadmin)
	shadowX := newActor(ClassShadowSuperadmin)
	shadowY := newActor(ClassShadowSuperadmin)

	tests := []struct {
		name    string
		viewer  Actor
		creator Actor
		want    bool
	}{
		{"regular creator visible to anyone", shadowX, regular, true},
		{"regular creator visible to regular", regular, regular, true},
		{"regular creator visible to main superadmin", main, regular, true},

		{"main creator visible to main viewer", otherMain, main, true},
		{"main creator visible to regular viewer", regular, main, true},
		{"main creator hidden from shadow viewer", shadowX, main, false},

		{"shadow creator hidden from main viewer", main, shadowX, false},
		{"shadow creator visible to itself", shadowX, shadowX, true},
		{"shadow creator hidden from different shadow", shadowY, shadowX, false},
		{"shadow creator hidden from regular viewer", regular, shadowX, false},

		{"main creator visible to itself", main, main, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Visible(tt.viewer, tt.creator))
		})
	}
}

func TestIsolatedCreatorIDs(t *testing.T) {
	main := newActor(ClassMainSuperadmin)
	shadowX := newActor(ClassShadowSuperadmin)
	shadowY := newActor(ClassShadowSuperadmin)
	regular := newActor(ClassRegular)

	t.Run("main viewer excludes all shadows", func(t *testing.T) {
		isolated := IsolatedCreatorIDs(main, []Actor{shadowX, shadowY, regular, main})
		require.Len(t, isolated, 2)
		require.Contains(t, isolated, shadowX.ID)
		require.Contains(t, isolated, shadowY.ID)
	})

	t.Run("shadow viewer excludes main and other shadows", func(t *testing.T) {
		isolated := IsolatedCreatorIDs(shadowX, []Actor{shadowX, shadowY, regular, main})
		require.Len(t, isolated, 2)
		require.Contains(t, isolated, shadowY.ID)
		require.Contains(t, isolated, main.ID)
		require.NotContains(t, isolated, shadowX.ID)
	})

	t.Run("regular viewer excludes shadows only", func(t *testing.T) {
		isolated := IsolatedCreatorIDs(regular, []Actor{shadowX, main, regular})
		require.Len(t, isolated, 1)
		require.Contains(t, isolated, shadowX.ID)
	})
}

func TestActorFor(t *testing.T) {
	ownerID := uuid.Must(uuid.NewV7())

	tests := []struct {
		name string
		user *models.User
		want Class
	}{
		{"member", &models.User{UserID: uuid.Must(uuid.NewV7()), Role: models.RoleMember}, ClassRegular},
		{"admin", &models.User{UserID: uuid.Must(uuid.NewV7()), Role: models.RoleAdmin}, ClassRegular},
		{"main superadmin", &models.User{UserID: uuid.Must(uuid.NewV7()), Role: models.RoleSuperadmin}, ClassMainSuperadmin},
		{"shadow superadmin", &models.User{
			UserID:        uuid.Must(uuid.NewV7()),
			Role:          models.RoleSuperadmin,
			IsShadow:      true,
			ShadowOwnerID: &ownerID,
		}, ClassShadowSuperadmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := ActorFor(tt.user)
			require.Equal(t, tt.want, actor.Class)
			require.Equal(t, tt.user.UserID, actor.ID)
		})
	}
}
