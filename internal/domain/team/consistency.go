package team

// ConsistencyKind tags the outcome of a post-departure consistency check.
type ConsistencyKind string

// Consistency check outcomes.
const (
	KindOK ConsistencyKind = "OK"

	// KindTeamUnderMinimum: the team is down to exactly MinSize members.
	KindTeamUnderMinimum ConsistencyKind = "TEAM_UNDER_MINIMUM"

	// KindTeamNeedsMerge: the team dropped to one member and that member was
	// reassigned to another team.
	KindTeamNeedsMerge ConsistencyKind = "TEAM_NEEDS_MERGE"

	// KindNoMergeTarget: the team dropped to one member but no destination
	// team has room.
	KindNoMergeTarget ConsistencyKind = "NO_MERGE_TARGET"

	// KindTeamOverMaximum is declared for completeness; the current flows
	// never produce it because oversized teams are split on join.
	KindTeamOverMaximum ConsistencyKind = "TEAM_OVER_MAXIMUM"
)

// ConsistencyResult is the tagged result of a consistency check. Only the
// fields relevant to the Kind are populated.
type ConsistencyResult struct {
	Kind             ConsistencyKind
	TeamID           ID
	MemberCount      int
	RemainingMembers []MemberInfo
	SoleParticipant  *MemberInfo
}

// ConsistencyOK reports that no action is needed.
func ConsistencyOK() ConsistencyResult {
	return ConsistencyResult{Kind: KindOK}
}

// ConsistencyUnderMinimum reports a team at exactly the minimum size.
func ConsistencyUnderMinimum(teamID ID, memberCount int, remaining []MemberInfo) ConsistencyResult {
	return ConsistencyResult{
		Kind:             KindTeamUnderMinimum,
		TeamID:           teamID,
		MemberCount:      memberCount,
		RemainingMembers: remaining,
	}
}

// ConsistencyNeedsMerge reports a sole survivor that was merged elsewhere.
func ConsistencyNeedsMerge(teamID ID, sole MemberInfo) ConsistencyResult {
	return ConsistencyResult{
		Kind:            KindTeamNeedsMerge,
		TeamID:          teamID,
		SoleParticipant: &sole,
	}
}

// ConsistencyNoMergeTarget reports a sole survivor with nowhere to go.
func ConsistencyNoMergeTarget(sole MemberInfo) ConsistencyResult {
	return ConsistencyResult{
		Kind:            KindNoMergeTarget,
		SoleParticipant: &sole,
	}
}

// IsOK reports whether the check found the team consistent.
func (r ConsistencyResult) IsOK() bool {
	return r.Kind == KindOK
}
