package service

import (
	"sort"
	"strings"
)

const (
	LanguageRobot = "robotframework"
	LanguageBash  = "bash"
)

// ScriptTemplate is a canned automation script for one scenario.
type ScriptTemplate struct {
	Key      string
	Title    string
	Language string
	Body     string
}

// FileName is the download name: KEY.robot for Robot Framework, KEY.txt otherwise.
func (t ScriptTemplate) FileName() string {
	if t.Language == LanguageRobot {
		return t.Key + ".robot"
	}
	return t.Key + ".txt"
}

// DownloadPath is the server-relative path the script is served from.
func (t ScriptTemplate) DownloadPath() string {
	if t.Language == LanguageRobot {
		return "/documents/scripts/" + t.FileName()
	}
	return "/api/v1/scripts/" + t.FileName()
}

// ScriptCatalog is the read-only table of script templates.
type ScriptCatalog struct {
	byKey map[string]ScriptTemplate
}

func NewScriptCatalog(templates ...ScriptTemplate) *ScriptCatalog {
	byKey := make(map[string]ScriptTemplate, len(templates))
	for _, t := range templates {
		t.Key = NormalizeScriptKey(t.Key)
		byKey[t.Key] = t
	}
	return &ScriptCatalog{byKey: byKey}
}

// DefaultScriptCatalog returns the scripts shipped with the service.
func DefaultScriptCatalog() *ScriptCatalog {
	return NewScriptCatalog(defaultScripts...)
}

// Lookup finds a template by code, falling back to the core code.
func (c *ScriptCatalog) Lookup(code string) (ScriptTemplate, bool) {
	if code == "" {
		return ScriptTemplate{}, false
	}
	if t, ok := c.byKey[NormalizeScriptKey(code)]; ok {
		return t, true
	}
	t, ok := c.byKey[CoreCode(code)]
	return t, ok
}

// ByFileName resolves a download name such as IB02_WIT.robot.
func (c *ScriptCatalog) ByFileName(name string) (ScriptTemplate, bool) {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return ScriptTemplate{}, false
	}
	t, ok := c.byKey[NormalizeScriptKey(name[:dot])]
	if !ok || t.FileName() != t.Key+name[dot:] {
		return ScriptTemplate{}, false
	}
	return t, true
}

func (c *ScriptCatalog) Keys() []string {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var defaultScripts = []ScriptTemplate{
	{
		Key:      "IB01_RTC",
		Title:    "Receive To Cross-dock (RTC) validation",
		Language: LanguageRobot,
		Body: `*** Settings ***
Library           SeleniumLibrary
Resource          ../resources/mawm_common.robot
Suite Setup       Login To MAWM    ${MAWM_USER}    ${MAWM_PASSWORD}
Suite Teardown    Close All Browsers

*** Variables ***
${ASN_ID}         ASN_RTC_0001
${LPN_ID}         LPN_RTC_0001

*** Test Cases ***
IB01 RTC Receive And Cross-dock
    [Documentation]    Receive an RTC ASN and verify the LPN is routed to the cross-dock lane.
    Open Menu    Receiving
    Search ASN    ${ASN_ID}
    Receive LPN    ${LPN_ID}
    Verify LPN Status    ${LPN_ID}    Allocated For Cross-dock
    Verify Auto Transport Task Created    ${LPN_ID}`,
	},
	{
		Key:      "IB02_WIT",
		Title:    "Warehouse In Transit (WIT) receiving",
		Language: LanguageRobot,
		Body: `*** Settings ***
Library           SeleniumLibrary
Resource          ../resources/mawm_common.robot
Suite Setup       Login To MAWM    ${MAWM_USER}    ${MAWM_PASSWORD}
Suite Teardown    Close All Browsers

*** Variables ***
${PO_NUMBER}      4500012345
${ASN_ID}         ASN_WIT_0001

*** Test Cases ***
IB02 WIT Receiving
    [Documentation]    Verify a WIT ASN created from SAP can be received and put away.
    Open Menu    ASNs
    Search ASN    ${ASN_ID}
    Verify ASN Status    ${ASN_ID}    In Transit
    Receive ASN    ${ASN_ID}
    Verify ASN Status    ${ASN_ID}    Receiving Verified
    Verify Putaway Task Created    ${ASN_ID}`,
	},
	{
		Key:      "INV04",
		Title:    "Inventory adjustment sync check",
		Language: LanguageBash,
		Body: `#!/usr/bin/env bash
set -euo pipefail

ITEM_ID="${1:?usage: inv04.sh ITEM_ID FACILITY}"
FACILITY="${2:?usage: inv04.sh ITEM_ID FACILITY}"

echo "Fetching MAWM inventory for ${ITEM_ID} at ${FACILITY}"
curl -sf -H "Authorization: Bearer ${MAWM_TOKEN}" \
  "${MAWM_URL}/dcinventory/api/dcinventory/inventory?itemId=${ITEM_ID}&facilityId=${FACILITY}" \
  | jq '.data[] | {itemId: .ItemId, onHand: .OnHand, location: .LocationId}'`,
	},
	{
		Key:      "OB07",
		Title:    "Outbound wave release smoke test",
		Language: LanguageBash,
		Body: `#!/usr/bin/env bash
set -euo pipefail

WAVE_TEMPLATE="${1:-DEFAULT_WAVE}"

echo "Releasing wave template ${WAVE_TEMPLATE}"
curl -sf -X POST -H "Authorization: Bearer ${MAWM_TOKEN}" -H "Content-Type: application/json" \
  -d "{\"WaveTemplateId\": \"${WAVE_TEMPLATE}\"}" \
  "${MAWM_URL}/wave/api/wave/wave/run" | jq '.data.WaveRunId'`,
	},
}
