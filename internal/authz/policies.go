package authz

// defaultPolicies contains the built-in Cedar authorization policies.
// They check principal.grantedActions (populated from scope mapping in Go code)
// rather than scope names, so custom scope mappings work without custom policies.
const defaultPolicies = `
permit(
  principal,
  action == DocSource::Action::"sources.view",
  resource
) when {
  principal.grantedActions.contains("sources.view")
};

permit(
  principal,
  action == DocSource::Action::"sources.create",
  resource
) when {
  principal.grantedActions.contains("sources.create")
};

permit(
  principal,
  action == DocSource::Action::"sources.edit",
  resource
) when {
  principal.grantedActions.contains("sources.edit")
};

permit(
  principal,
  action == DocSource::Action::"sources.delete",
  resource
) when {
  principal.grantedActions.contains("sources.delete")
};

permit(
  principal,
  action == DocSource::Action::"documents.create",
  resource
) when {
  principal.grantedActions.contains("documents.create")
};

permit(
  principal,
  action == DocSource::Action::"documents.view",
  resource
) when {
  principal.grantedActions.contains("documents.view")
};
`
