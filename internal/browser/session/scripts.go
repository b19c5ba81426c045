// internal/browser/session/scripts.go
package session

// Function declarations called on a resolved node through
// Runtime.callFunctionOn; "this" is the element.

const clearJS = `function() {
	if (this.disabled || this.readOnly) {
		throw new Error("element is not editable");
	}
	if (this.isContentEditable) {
		this.textContent = "";
	} else {
		this.value = "";
	}
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
}`

// attributeJS reports live properties for value, selected and checked and
// the markup attribute for everything else. Missing attributes read as "".
const attributeJS = `function(name) {
	if (name === "value" || name === "selected" || name === "checked") {
		const v = this[name];
		return v === undefined || v === null ? "" : String(v);
	}
	const v = this.getAttribute(name);
	return v === null ? "" : v;
}`

const textJS = `function() {
	return this.innerText || "";
}`

const selectedJS = `function() {
	return !!(this.selected || this.checked);
}`

// Selection order on a <select> is not tracked by the DOM, so every option we
// select is stamped with a sequence number. Options the page itself selected
// carry no stamp and sort first, in document order. Single selection checks
// read Options instead, so this order only matters for multi-value reads.
const (
	seqAttr   = "data-pagewait-seq"
	orderAttr = "data-pagewait-order"
)

const selectOptionJS = `function(mode, key) {
	const opts = Array.from(this.options);
	const norm = s => s.replace(/\s+/g, " ").trim();
	let matched;
	if (mode === "index") {
		matched = opts[key] ? [opts[key]] : [];
	} else if (mode === "label") {
		matched = opts.filter(o => norm(o.text) === norm(key));
	} else {
		matched = opts.filter(o => o.value === key);
	}
	if (matched.length === 0) {
		throw new Error("cannot locate option with " + mode + " " + JSON.stringify(key));
	}
	if (!this.multiple) {
		matched = matched.slice(0, 1);
		opts.forEach(o => o.removeAttribute("` + orderAttr + `"));
	}
	let seq = Number(this.getAttribute("` + seqAttr + `") || "0");
	for (const o of matched) {
		if (!o.selected || !o.hasAttribute("` + orderAttr + `")) {
			o.setAttribute("` + orderAttr + `", String(++seq));
		}
		o.selected = true;
	}
	this.setAttribute("` + seqAttr + `", String(seq));
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
}`

const deselectAllJS = `function() {
	if (!this.multiple) {
		throw new Error("you may only deselect all options of a multi-select");
	}
	for (const o of this.options) {
		o.selected = false;
		o.removeAttribute("` + orderAttr + `");
	}
	this.setAttribute("` + seqAttr + `", "0");
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
}`

const selectedIndexesJS = `function() {
	const order = o => Number(o.getAttribute("` + orderAttr + `") || "0");
	return Array.from(this.options)
		.map((o, i) => ({o, i}))
		.filter(x => x.o.selected)
		.sort((a, b) => order(a.o) - order(b.o) || a.i - b.i)
		.map(x => x.i);
}`

const optionCountJS = `function() {
	return this.options.length;
}`

// optionJS describes the option at index i.
const optionJS = `function(i) {
	const o = this.options[i];
	if (!o) {
		throw new Error("option index " + i + " out of range");
	}
	return {text: o.text, value: o.value, selected: o.selected};
}`

const optionAttributeJS = `function(i, name) {
	const o = this.options[i];
	if (!o) {
		throw new Error("option index " + i + " out of range");
	}
	const v = o.getAttribute(name);
	return v === null ? "" : v;
}`
