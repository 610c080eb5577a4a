package model

import (
	"regexp"
	"strings"
)

// BPMN's XML grammar is camel-cased and case-sensitive. A prior lossy round
// trip through a case-normalizing layer leaves tag and attribute names fully
// lowercased, which a forgiving parser would accept but the target engine
// rejects. The check runs on the raw string: a normalizing parse would mask
// the very defect being detected.
var (
	corruptedTagPattern = regexp.MustCompile(`<(?:[A-Za-z0-9._-]+:)?(?:startevent|endevent|usertask|servicetask|callactivity|sequenceflow|extensionelements|businessruletask|exclusivegateway|parallelgateway|inclusivegateway|intermediatecatchevent|intermediatethrowevent|boundaryevent|formdefinition)[\s>/]`)

	corruptedAttrPattern = regexp.MustCompile(`[\s](?:targetnamespace|isexecutable|sourceref|targetref|calledelement|processref|bpmnelement|formid|bindingtype)=`)
)

// IsLikelyCorrupted flags XML whose BPMN tag or attribute names appear fully
// lowercased.
func IsLikelyCorrupted(bpmnXml string) bool {
	if !strings.Contains(bpmnXml, "<") {
		return false
	}
	return corruptedTagPattern.MatchString(bpmnXml) || corruptedAttrPattern.MatchString(bpmnXml)
}
