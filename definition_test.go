package strata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trafficYAML = `
id: traffic
root:
  id: root
  initial: off
  children:
    - id: off
      on:
        power:
          - target: on
    - id: on
      initial: red
      entry: powered
      children:
        - id: red
          on:
            tick:
              - target: green
                action: announce
        - id: green
          on:
            tick:
              - target: red
                guard: canStop
                external: true
    - id: diag
      parallel: true
      children:
        - id: lamps
        - id: timer
`

func TestLoadDefinition(t *testing.T) {
	d, err := LoadDefinition([]byte(trafficYAML))
	require.NoError(t, err)
	assert.Equal(t, "traffic", d.ID)
	assert.Equal(t, "root", d.Root.ID)
	assert.Len(t, d.Root.Children, 3)
	assert.True(t, d.Root.Children[2].Parallel)
}

func TestLoadDefinitionRejectsInvalidYAML(t *testing.T) {
	_, err := LoadDefinition([]byte(":\n  - not yaml"))
	require.Error(t, err)
	assert.True(t, IsDefinitionError(err))
}

func TestDefinitionValidation(t *testing.T) {
	cases := []struct {
		name string
		def  Definition
	}{
		{
			name: "missing machine id",
			def:  Definition{Root: StateDef{ID: "root"}},
		},
		{
			name: "empty state id",
			def: Definition{ID: "m", Root: StateDef{
				ID:       "root",
				Children: []StateDef{{}},
			}},
		},
		{
			name: "duplicate state id",
			def: Definition{ID: "m", Root: StateDef{
				ID:       "root",
				Children: []StateDef{{ID: "a"}, {ID: "a"}},
			}},
		},
		{
			name: "initial not a child",
			def: Definition{ID: "m", Root: StateDef{
				ID:       "root",
				Initial:  "elsewhere",
				Children: []StateDef{{ID: "a"}},
			}},
		},
		{
			name: "unknown transition target",
			def: Definition{ID: "m", Root: StateDef{
				ID: "root",
				On: map[string][]HandlerDef{
					"ev": {{Target: "ghost"}},
				},
			}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			require.Error(t, err)
			assert.True(t, IsDefinitionError(err))
			assert.Equal(t, ErrCodeInvalidDefinition, GetErrorCode(err))
		})
	}
}

func TestDefinitionBuildAndRun(t *testing.T) {
	d, err := LoadDefinition([]byte(trafficYAML))
	require.NoError(t, err)

	rec := &recorder{}
	canStop := true
	m, err := d.Build(Bindings{
		Guards: map[string]Guard{
			"canStop": func(Event) bool { return canStop },
		},
		Actions: map[string]Action{
			"powered":  rec.mark("powered"),
			"announce": rec.mark("announce"),
		},
	})
	require.NoError(t, err)

	m.Start()
	assert.Equal(t, "root/off", m.Describe())

	require.True(t, m.Handle("power", nil).Handled())
	assert.Equal(t, "root/on/red", m.Describe())
	assertCalls(t, rec, "powered")

	m.Handle("tick", nil)
	assert.Equal(t, "root/on/green", m.Describe())

	canStop = false
	assert.False(t, m.Handle("tick", nil).Handled())
	assert.Equal(t, "root/on/green", m.Describe())
}

func TestDefinitionBuildRejectsUnboundNames(t *testing.T) {
	d, err := LoadDefinition([]byte(trafficYAML))
	require.NoError(t, err)

	_, err = d.Build(Bindings{
		Actions: map[string]Action{
			"powered":  func(Event) {},
			"announce": func(Event) {},
		},
	})
	require.Error(t, err)
	assert.True(t, IsDefinitionError(err))
	assert.Contains(t, err.Error(), "canStop")
}
