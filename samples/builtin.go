package samples

// Built-in samples mirror the routines shipped with the original
// playground. They are sample user content: the engine knows nothing
// about them.

const unityMetadataSource = `# Cleans up Unity/Android metadata pollution from exception messages.

def before_send(event, hint):
    if "exception" in event and "values" in event["exception"]:
        for exception in event["exception"]["values"]:
            value = exception.get("value")
            if value and ("Unity version" in value or "Device model" in value or "Device fingerprint" in value):
                m = re.search(r'([\w.$]+(?:Exception|Error))', value)
                if m:
                    # Found the real exception - use it
                    exception["type"] = m.group(1)
                    exception["value"] = m.group(1)
                else:
                    # No exception found - use generic but descriptive title
                    exception["type"] = "NativeCrash"
                    exception["value"] = "Android Native Crash"
    return event
`

const dropHealthChecksSource = `# Drops synthetic health-check transactions instead of forwarding them.

def before_send(event, hint):
    request = event.get("request", {})
    if request.get("url", "").endswith("/health"):
        return None
    return event
`

const scrubEmailsSource = `# Redacts email addresses anywhere in the exception message.

def before_send(event, hint):
    for exception in event.get("exception", {}).get("values", []):
        if exception.get("value"):
            exception["value"] = re.sub(r'[\w.+-]+@[\w-]+\.[\w.]+', "[email]", exception["value"])
    return event
`

func builtinSamples() []Sample {
	return []Sample{
		{
			Name:        "unity-metadata",
			Title:       "Clean Unity metadata pollution",
			Description: "Extracts the real exception type from messages polluted with Unity/Android device metadata.",
			Runtime:     "starlark",
			Source:      unityMetadataSource,
		},
		{
			Name:        "drop-health-checks",
			Title:       "Drop health-check events",
			Description: "Returns None for synthetic health-check traffic so it is never kept.",
			Runtime:     "starlark",
			Source:      dropHealthChecksSource,
		},
		{
			Name:        "scrub-emails",
			Title:       "Scrub email addresses",
			Description: "Replaces email addresses in exception messages with a redaction marker.",
			Runtime:     "starlark",
			Source:      scrubEmailsSource,
		},
	}
}
