package client

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func richGridFixture(videoIDs ...string) map[string]interface{} {
	items := make([]interface{}, 0, len(videoIDs))
	for _, id := range videoIDs {
		items = append(items, map[string]interface{}{
			"richItemRenderer": map[string]interface{}{
				"content": map[string]interface{}{
					"videoRenderer": map[string]interface{}{"videoId": id},
				},
			},
		})
	}
	return map[string]interface{}{
		"contents": map[string]interface{}{
			"twoColumnBrowseResultsRenderer": map[string]interface{}{
				"tabs": []interface{}{
					map[string]interface{}{
						"tabRenderer": map[string]interface{}{
							"content": map[string]interface{}{
								"richGridRenderer": map[string]interface{}{
									"contents": items,
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestParseVideoRefsFromBrowse_RichGrid(t *testing.T) {
	data := richGridFixture("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc")

	refs, err := parseVideoRefsFromBrowse(data, 10)

	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "aaaaaaaaaaa", refs[0].ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa", refs[0].URL)
	assert.Equal(t, "ccccccccccc", refs[2].ID)
}

func TestParseVideoRefsFromBrowse_RespectsMax(t *testing.T) {
	data := richGridFixture("aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc")

	refs, err := parseVideoRefsFromBrowse(data, 2)

	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestParseVideoRefsFromBrowse_Deduplicates(t *testing.T) {
	data := richGridFixture("aaaaaaaaaaa", "aaaaaaaaaaa", "bbbbbbbbbbb")

	refs, err := parseVideoRefsFromBrowse(data, 10)

	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestParseVideoRefsFromBrowse_SectionListLayout(t *testing.T) {
	// Older channel pages nest gridVideoRenderer entries at varying depths
	// under a sectionListRenderer.
	raw := `{
		"contents": {
			"twoColumnBrowseResultsRenderer": {
				"tabs": [{
					"tabRenderer": {
						"content": {
							"sectionListRenderer": {
								"contents": [{
									"itemSectionRenderer": {
										"contents": [{
											"gridRenderer": {
												"items": [
													{"gridVideoRenderer": {"videoId": "aaaaaaaaaaa"}},
													{"gridVideoRenderer": {"videoId": "bbbbbbbbbbb"}}
												]
											}
										}]
									}
								}]
							}
						}
					}
				}]
			}
		}
	}`
	var data interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	refs, err := parseVideoRefsFromBrowse(data, 10)

	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "aaaaaaaaaaa", refs[0].ID)
}

func TestParseVideoRefsFromBrowse_EmptyResponse(t *testing.T) {
	refs, err := parseVideoRefsFromBrowse(map[string]interface{}{}, 10)

	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestParseVideoRefsFromBrowse_InvalidType(t *testing.T) {
	_, err := parseVideoRefsFromBrowse("not a map", 10)

	assert.Error(t, err)
}

func TestInnerTubeListClient_PlaylistAndSearchNeedAPIKey(t *testing.T) {
	client := NewInnerTubeListClient()

	_, err := client.ListPlaylistVideos(context.Background(), "PLtest", 5)
	assert.ErrorContains(t, err, "API key")

	_, err = client.SearchVideos(context.Background(), "fluid dynamics", 5)
	assert.ErrorContains(t, err, "API key")
}
