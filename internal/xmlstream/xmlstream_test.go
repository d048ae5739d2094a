package xmlstream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/permithub/internal/models"
)

const dump = `<?xml version="1.0" encoding="UTF-8"?>
<Root>
  <Meta>export 2024</Meta>
  <Data>
    <執照號碼>A-1</執照號碼>
    <發照日期>108/3/19</發照日期>
  </Data>
  <Data>
    <執照號碼>A-2</執照號碼>
    <注意事項>
      <備註說明>first</備註說明>
      <備註說明>second</備註說明>
    </注意事項>
  </Data>
  <Data>
    <執照號碼></執照號碼>
  </Data>
</Root>`

func TestEachRecord_VisitsEveryRecordInOrder(t *testing.T) {
	var keys []string
	err := EachRecord(strings.NewReader(dump), "Data", func(n *models.RawNode) error {
		keys = append(keys, n.ChildText("執照號碼"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "A-2", ""}, keys)
}

func TestEachRecord_SkipsNonRecordElements(t *testing.T) {
	count := 0
	err := EachRecord(strings.NewReader(dump), "Data", func(n *models.RawNode) error {
		count++
		assert.Equal(t, "Data", n.Tag)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestEachRecord_StopSentinel(t *testing.T) {
	count := 0
	err := EachRecord(strings.NewReader(dump), "Data", func(n *models.RawNode) error {
		count++
		if count == 2 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEachRecord_CallbackErrorAborts(t *testing.T) {
	err := EachRecord(strings.NewReader(dump), "Data", func(n *models.RawNode) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEachRecord_MalformedDocument(t *testing.T) {
	bad := `<Root><Data><執照號碼>A-1</Data></Root>`
	err := EachRecord(strings.NewReader(bad), "Data", func(n *models.RawNode) error {
		return nil
	})
	assert.Error(t, err)
}

func TestEachRecord_RepeatedListsPreserveOrder(t *testing.T) {
	var notes []string
	err := EachRecord(strings.NewReader(dump), "Data", func(n *models.RawNode) error {
		if nt := n.Child("注意事項"); nt != nil {
			for _, item := range nt.ChildAll("備註說明") {
				notes = append(notes, item.Text)
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, notes)
}

func TestTagFrequency(t *testing.T) {
	counts, err := TagFrequency(strings.NewReader(dump), "Data", 0)
	require.NoError(t, err)
	// the third record's key tag is blank and must not be counted
	assert.Equal(t, 2, counts["執照號碼"])
	assert.Equal(t, 1, counts["發照日期"])
	_, present := counts["Meta"]
	assert.False(t, present)
}

func TestTagFrequency_SampleCap(t *testing.T) {
	counts, err := TagFrequency(strings.NewReader(dump), "Data", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["執照號碼"])
}
