package rod

const (
	loginHTML = `<!DOCTYPE html>
<html>
<head><title>Provider Portal</title></head>
<body>
	<form id="login" onsubmit="event.preventDefault(); document.getElementById('state').textContent = 'Signed in as ' + document.getElementById('user').value;">
		<input id="user" type="text" name="username" placeholder="Username" />
		<input id="pass" type="password" name="password" />
		<button id="signin" type="submit">Sign In</button>
	</form>
	<div id="state"></div>
</body>
</html>`

	intakeHTML = `<!DOCTYPE html>
<html>
<body>
	<label for="plan">Plan</label>
	<select id="plan" name="plan">
		<option value="">Choose</option>
		<option value="hmo">Medicare HMO</option>
		<option value="ppo">Medicare PPO</option>
	</select>
	<input id="hidden" type="hidden" name="token" value="x" />
	<button id="next" aria-label="Next step" onclick="document.getElementById('result').textContent = 'Step 2';">Next</button>
	<div id="result"></div>
</body>
</html>`

	uploadHTML = `<!DOCTYPE html>
<html>
<body>
	<input id="docs" type="file" name="docs" multiple onchange="document.getElementById('count').textContent = this.files.length + ' file(s)';" />
	<div id="count"></div>
</body>
</html>`

	scrollableHTML = `<!DOCTYPE html>
<html>
<body style="height: 5000px;">
	<h1 id="top">Top of Page</h1>
	<div style="margin-top: 2000px;" id="middle">Middle</div>
</body>
</html>`
)
