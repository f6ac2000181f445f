package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPasswordHashing(t *testing.T) {
	user := User{Username: "captain"}

	require.NoError(t, user.SetPassword("secret-password-1"))
	assert.NotEqual(t, "secret-password-1", user.Password, "Пароль хранится только в виде хэша")

	assert.True(t, user.CheckPassword("secret-password-1"))
	assert.False(t, user.CheckPassword("wrong-password"))
}

func TestUserFullName(t *testing.T) {
	user := User{FirstName: "Иван", LastName: "Петров", Username: "ipetrov"}
	assert.Equal(t, "Иван Петров", user.FullName())

	bare := User{Username: "ipetrov"}
	assert.Equal(t, "ipetrov", bare.FullName(), "Без имени используется логин")
}

func TestCapabilities_Supervisor(t *testing.T) {
	caps := (&User{Role: RoleSupervisor}).Capabilities()

	assert.True(t, caps.CanSupervise)
	assert.True(t, caps.ViewAllAssets)
	assert.True(t, caps.CanManageUsers)
	assert.True(t, caps.CanCloseFailures)
	assert.Empty(t, caps.RestrictedArea)
	assert.Empty(t, caps.ExcludedArea)
	assert.False(t, caps.ForceSelfAssign)
}

func TestCapabilities_Technician(t *testing.T) {
	caps := (&User{Role: RoleTechnician}).Capabilities()

	assert.False(t, caps.CanSupervise)
	assert.Equal(t, AssetAreaDiving, caps.ExcludedArea, "Техник не видит водолазную зону")
	assert.Empty(t, caps.RestrictedArea)
	assert.True(t, caps.ForceSelfAssign)
}

func TestCapabilities_Diver(t *testing.T) {
	caps := (&User{Role: RoleDiver}).Capabilities()

	assert.False(t, caps.CanSupervise)
	assert.Equal(t, AssetAreaDiving, caps.RestrictedArea, "Водолаз работает только в своей зоне")
	assert.Empty(t, caps.ExcludedArea)
	assert.True(t, caps.ForceSelfAssign)
}

func TestCapabilities_FleetManager(t *testing.T) {
	caps := (&User{Role: RoleFleetManager}).Capabilities()

	assert.True(t, caps.ViewAllAssets)
	assert.False(t, caps.CanSupervise, "Менеджер парка наблюдает, но не управляет обслуживанием")
	assert.False(t, caps.CanManageUsers)
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RoleSupervisor, RoleTechnician, RoleDiver, RoleFleetManager} {
		assert.True(t, IsValidRole(role), role)
	}
	assert.False(t, IsValidRole("admin"))
	assert.False(t, IsValidRole(""))
}
