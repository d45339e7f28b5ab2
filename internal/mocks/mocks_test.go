// internal/mocks/mocks_test.go
package mocks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/config"
	"github.com/xkilldash9x/uiharness/internal/mocks"
)

var (
	_ config.Interface        = (*mocks.MockConfig)(nil)
	_ browser.Backend         = (*mocks.MockBackend)(nil)
	_ browser.Driver          = (*mocks.MockDriver)(nil)
	_ browser.Browser         = (*mocks.MockBrowser)(nil)
	_ browser.BrowsingContext = (*mocks.MockBrowsingContext)(nil)
	_ browser.Page            = (*mocks.MockPage)(nil)
)

func TestStackExpectInitialize(t *testing.T) {
	ctx := context.Background()
	stack := mocks.NewStack("mock").ExpectInitialize(browser.Firefox)

	assert.True(t, stack.Backend.Supports(browser.Firefox))
	driver, err := stack.Backend.Start(ctx)
	require.NoError(t, err)
	b, err := driver.Launch(ctx, browser.Firefox, browser.LaunchOptions{})
	require.NoError(t, err)
	bc, err := b.NewContext(ctx, browser.ContextOptions{})
	require.NoError(t, err)
	page, err := bc.NewPage(ctx)
	require.NoError(t, err)

	page.SetDefaultTimeout(3 * time.Second)
	page.SetDefaultNavigationTimeout(7 * time.Second)
	assert.Equal(t, 3*time.Second, page.DefaultTimeout())
	assert.Equal(t, 7*time.Second, page.DefaultNavigationTimeout())

	stack.AssertExpectations(t)
}

func TestMockPageElementScreenshotNotFound(t *testing.T) {
	page := new(mocks.MockPage)
	page.On("ElementScreenshot", context.Background(), "#missing").Return(nil, false, nil)

	png, found, err := page.ElementScreenshot(context.Background(), "#missing")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, png)
}
